package forecaster

import (
	"time"

	"github.com/aouyang1/demandcast/forecast"
)

// Results holds the point forecast and the prediction interval at the requested coverage
type Results struct {
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Upper    []float64   `json:"upper"`
	Lower    []float64   `json:"lower"`
	Coverage float64     `json:"coverage"`

	SeriesComponents   forecast.Components `json:"series_components"`
	ResidualComponents forecast.Components `json:"residual_components"`
}

// Clip raises every forecast and bound below min up to min
func (r *Results) Clip(min float64) *Results {
	if r == nil {
		return nil
	}
	for _, series := range [][]float64{r.Forecast, r.Upper, r.Lower} {
		for i, v := range series {
			if v < min {
				series[i] = min
			}
		}
	}
	return r
}
