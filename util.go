package forecaster

import (
	"math"
	"time"

	"github.com/aouyang1/demandcast/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// missingValue renders as a gap in echarts
const missingValue = "-"

func dateAxis(t []time.Time) []string {
	axis := make([]string, len(t))
	for i, tPnt := range t {
		axis[i] = tPnt.Format(time.DateOnly)
	}
	return axis
}

func lineData(y []float64, n int) []opts.LineData {
	data := make([]opts.LineData, 0, n)
	for i := 0; i < n; i++ {
		if i >= len(y) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			data = append(data, opts.LineData{Value: missingValue})
			continue
		}
		data = append(data, opts.LineData{Value: y[i]})
	}
	return data
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that should have the same length as the input time slice. NaN values are
// shown as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(dateAxis(t))
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		line = line.AddSeries(series, lineData(y[i], len(t)))
	}

	return line
}

// LineForecaster generates an echart line chart of the training data along with the forecast,
// upper and lower values of the training fit followed by the horizon forecast.
func LineForecaster(trainingData *timedataset.TimeDataset, fitRes, forecastRes *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Forecast Fit",
			},
		),
	)

	var t []time.Time
	var forecast, upper, lower []float64
	for _, res := range []*Results{fitRes, forecastRes} {
		if res == nil {
			continue
		}
		t = append(t, res.T...)
		forecast = append(forecast, res.Forecast...)
		upper = append(upper, res.Upper...)
		lower = append(lower, res.Lower...)
	}

	var actual []float64
	if trainingData != nil {
		actual = trainingData.Y
	}

	line.SetXAxis(dateAxis(t)).
		AddSeries("Actual", lineData(actual, len(t))).
		AddSeries("Forecast", lineData(forecast, len(t))).
		AddSeries("Upper", lineData(upper, len(t))).
		AddSeries("Lower", lineData(lower, len(t)))
	return line
}
