package forecast

import (
	"slices"

	"github.com/aouyang1/demandcast/feature"
	"gonum.org/v1/gonum/floats"
)

// Components is the additive decomposition of a prediction. Trend includes the intercept.
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
	Event       []float64 `json:"event"`
	Regressor   []float64 `json:"regressor"`
}

func newComponents(m int, intercept float64) Components {
	c := Components{
		Trend:       make([]float64, m),
		Seasonality: make([]float64, m),
		Event:       make([]float64, m),
		Regressor:   make([]float64, m),
	}
	floats.AddConst(intercept, c.Trend)
	return c
}

// of returns the component a feature type contributes to. Growth and changepoints both shape
// the trend.
func (c Components) of(ft feature.FeatureType) []float64 {
	switch ft {
	case feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint:
		return c.Trend
	case feature.FeatureTypeSeasonality:
		return c.Seasonality
	case feature.FeatureTypeEvent:
		return c.Event
	case feature.FeatureTypeRegressor:
		return c.Regressor
	}
	return nil
}

// Total sums every component which equals the prediction.
func (c Components) Total() []float64 {
	res := make([]float64, len(c.Trend))
	for _, comp := range [][]float64{c.Trend, c.Seasonality, c.Event, c.Regressor} {
		if len(comp) == len(res) {
			floats.Add(res, comp)
		}
	}
	return res
}

// Copy returns a deep copy of the components.
func (c Components) Copy() Components {
	return Components{
		Trend:       slices.Clone(c.Trend),
		Seasonality: slices.Clone(c.Seasonality),
		Event:       slices.Clone(c.Event),
		Regressor:   slices.Clone(c.Regressor),
	}
}
