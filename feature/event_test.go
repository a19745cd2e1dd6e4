package feature

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLabels(t *testing.T) {
	feat := NewEvent("Tiradentes")
	assert.Equal(t, "event_Tiradentes", feat.String())
	assert.Equal(t, FeatureTypeEvent, feat.Type())
	assert.Equal(t, map[string]string{"name": "Tiradentes"}, feat.Decode())

	testData := map[string]struct {
		label     string
		expVal    string
		expExists bool
	}{
		"unknown":     {label: "date"},
		"capitalized": {label: "Name", expVal: "Tiradentes", expExists: true},
		"exact match": {label: "name", expVal: "Tiradentes", expExists: true},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := feat.Get(td.label)
			assert.Equal(t, td.expExists, exists, "exists")
			assert.Equal(t, td.expVal, val, "value")
		})
	}
}

func TestEventUnmarshalJSON(t *testing.T) {
	feat := NewEvent("Natal")
	out, err := json.Marshal(feat.Decode())
	require.NoError(t, err)

	var next Event
	require.NoError(t, json.Unmarshal(out, &next))
	assert.Equal(t, feat, &next)

	assert.Error(t, json.Unmarshal([]byte(`["Natal"]`), &next))
}

func TestEventGenerate(t *testing.T) {
	t0 := time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC)
	days := []time.Time{t0, t0.AddDate(0, 0, 1), t0.AddDate(0, 0, 2), t0.AddDate(0, 0, 3)}
	nameOf := func(tPnt time.Time) (string, bool) {
		switch tPnt.Day() {
		case 25:
			return "Natal", true
		case 26:
			return "Boxing Day", true
		}
		return "", false
	}

	testData := map[string]struct {
		event    *Event
		expected []float64
	}{
		"holiday in range":     {NewEvent("Natal"), []float64{0, 0, 1, 0}},
		"other holiday":        {NewEvent("Boxing Day"), []float64{0, 0, 0, 1}},
		"holiday out of range": {NewEvent("Finados"), []float64{0, 0, 0, 0}},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.event.Generate(days, nameOf))
		})
	}
	assert.Empty(t, NewEvent("Natal").Generate(nil, nameOf))
}
