package forecaster

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/aouyang1/demandcast/timedataset"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineData(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		n        int
		expected []opts.LineData
	}{
		"values": {
			y:        []float64{1, 2},
			n:        2,
			expected: []opts.LineData{{Value: 1.0}, {Value: 2.0}},
		},
		"nan gap": {
			y:        []float64{1, math.NaN()},
			n:        2,
			expected: []opts.LineData{{Value: 1.0}, {Value: missingValue}},
		},
		"padded": {
			y:        []float64{1},
			n:        3,
			expected: []opts.LineData{{Value: 1.0}, {Value: missingValue}, {Value: missingValue}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, lineData(td.y, td.n))
		})
	}
}

func TestDateAxis(t *testing.T) {
	days := timedataset.GenerateDays(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, dateAxis(days))
}

func TestPlotFit(t *testing.T) {
	days, y := generateDemand(60, 9)
	f, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y, nil))

	var buf bytes.Buffer
	require.NoError(t, f.PlotFit(&buf, &PlotOpts{HorizonCnt: 7}))
	out := buf.String()
	assert.Contains(t, out, "Forecast Fit")
	assert.Contains(t, out, "Forecast Components")
	assert.Contains(t, out, "Forecast Residual")
	assert.Contains(t, out, "2024-03-07")
}
