package service

import (
	"time"

	"github.com/goccy/go-json"
)

// Forecast is the prediction of one target over the horizon. Every series has the length of the
// horizon and no value is below zero.
type Forecast struct {
	Dates       []time.Time
	Predictions []float64
	LowerBound  []float64
	UpperBound  []float64
	Coverage    float64
}

type forecastJSON struct {
	Dates       []string  `json:"dates"`
	Predictions []float64 `json:"predictions"`
	LowerBound  []float64 `json:"lower_bound"`
	UpperBound  []float64 `json:"upper_bound"`
	Coverage    float64   `json:"coverage"`
}

// MarshalJSON writes the dates as calendar days
func (f Forecast) MarshalJSON() ([]byte, error) {
	dates := make([]string, len(f.Dates))
	for i, d := range f.Dates {
		dates[i] = d.Format(time.DateOnly)
	}
	return json.Marshal(forecastJSON{
		Dates:       dates,
		Predictions: f.Predictions,
		LowerBound:  f.LowerBound,
		UpperBound:  f.UpperBound,
		Coverage:    f.Coverage,
	})
}

// UnmarshalJSON reads calendar day dates as midnight UTC
func (f *Forecast) UnmarshalJSON(data []byte) error {
	var fj forecastJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	dates := make([]time.Time, len(fj.Dates))
	for i, d := range fj.Dates {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return err
		}
		dates[i] = t
	}
	*f = Forecast{
		Dates:       dates,
		Predictions: fj.Predictions,
		LowerBound:  fj.LowerBound,
		UpperBound:  fj.UpperBound,
		Coverage:    fj.Coverage,
	}
	return nil
}
