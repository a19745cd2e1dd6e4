// Package options contains all forecast options for a linear fit of a univariate daily series
package options

import (
	"fmt"
	"time"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/linearmodel"
	"github.com/aouyang1/demandcast/timedataset"
)

const (
	LabelSeasYearly = "yearly"
	LabelSeasWeekly = "weekly"
	LabelSeasDaily  = "daily"

	DefaultRegularization = 0.1
)

// Options configures a forecast by specifying the trend, seasonality, holiday and regressor
// components of the additive model and an optional L2 regularization strength applied to
// every coefficient except the intercept.
type Options struct {
	// GrowthType is either feature.GrowthLinear for a linear trend or empty for a constant level
	GrowthType string `json:"growth_type"`

	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	HolidayOptions     HolidayOptions     `json:"holiday_options"`
	RegressorOptions   RegressorOptions   `json:"regressor_options"`

	Regularization float64 `json:"regularization"`
}

// NewDefaultOptions returns a linear trend with automatic changepoints and seasonality and
// Brazil national holiday effects
func NewDefaultOptions() *Options {
	return &Options{
		GrowthType:         feature.GrowthLinear,
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		HolidayOptions:     NewDefaultHolidayOptions(),
		Regularization:     DefaultRegularization,
	}
}

// NewModel returns the linear model used to fit the generated features. A regularization of
// zero fits with ordinary least squares.
func (o *Options) NewModel() (linearmodel.Model, error) {
	if o.Regularization == 0 {
		return linearmodel.NewOLSRegression(&linearmodel.OLSOptions{
			FitIntercept: true,
		})
	}
	return linearmodel.NewRidgeRegression(&linearmodel.RidgeOptions{
		Lambda:       o.Regularization,
		FitIntercept: true,
	})
}

// Resolve returns a copy of the options with every automatic setting fixed for the training
// times and regressors. The resolved options generate the same features at fit and predict.
func (o *Options) Resolve(t []time.Time, regressors *timedataset.Frame) (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	regOpt, err := o.RegressorOptions.Resolve(regressors)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve regressors, %w", err)
	}

	res := &Options{
		GrowthType:         o.GrowthType,
		ChangepointOptions: ChangepointOptions{},
		SeasonalityOptions: o.SeasonalityOptions.Resolve(t),
		HolidayOptions:     o.HolidayOptions.Resolve(t),
		RegressorOptions:   regOpt,
		Regularization:     o.Regularization,
	}
	if o.GrowthType == feature.GrowthLinear {
		res.ChangepointOptions = o.ChangepointOptions.Resolve(t)
	}
	return res, nil
}

// Epoch converts the time points into unix epoch seconds
func Epoch(t []time.Time) []float64 {
	epoch := make([]float64, len(t))
	for i, tPnt := range t {
		epoch[i] = float64(tPnt.Unix())
	}
	return epoch
}

// GenerateFeatures generates every model feature for the time points. Regressors must be
// aligned with the time points.
func (o *Options) GenerateFeatures(t []time.Time, trainStartTime, trainEndTime time.Time, regressors *timedataset.Frame) (*feature.Set, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if regressors != nil && regressors.Len() != len(t) {
		return nil, fmt.Errorf(
			"regressors have %d rows for %d time points, %w",
			regressors.Len(), len(t), timedataset.ErrDatasetLenMismatch,
		)
	}

	epoch := Epoch(t)
	feat := feature.NewSet()

	if o.GrowthType == feature.GrowthLinear {
		growth := feature.Linear()
		growthData := growth.Generate(epoch, trainStartTime, trainEndTime)
		if growthData != nil {
			feat.Set(growth, growthData)
			feat.Update(o.ChangepointOptions.GenerateFeatures(growthData, trainStartTime, trainEndTime))
		}
	}

	feat.Update(o.SeasonalityOptions.GenerateFeatures(epoch))
	feat.Update(o.HolidayOptions.GenerateFeatures(t))

	regFeat, err := o.RegressorOptions.GenerateFeatures(regressors)
	if err != nil {
		return nil, err
	}
	feat.Update(regFeat)
	return feat, nil
}
