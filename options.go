package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/demandcast/forecast/options"
)

const (
	DefaultResidualWindow = 14
	DefaultCoverage       = 0.9
)

var (
	ErrInvalidResidualWindow = errors.New("residual window must be at least 2")
	ErrInvalidOutlierOptions = errors.New("invalid outlier options")
)

// OutlierOptions configures the iterative removal of training points whose fit residual lies
// outside of a Tukey fence. Each pass refits the series without the detected outliers.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// Options configures the series forecast, the uncertainty forecast fit on the rolling standard
// deviation of the series residual, and the default interval coverage.
type Options struct {
	SeriesOptions   *options.Options `json:"series_options"`
	ResidualOptions *options.Options `json:"residual_options"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
	ResidualWindow int             `json:"residual_window"`

	// Coverage of the intervals produced for the training fit and plots
	Coverage float64 `json:"coverage"`
}

// NewDefaultResidualOptions models the uncertainty as a level with seasonality
func NewDefaultResidualOptions() *options.Options {
	return &options.Options{
		SeasonalityOptions: options.NewDefaultSeasonalityOptions(),
		Regularization:     options.DefaultRegularization,
	}
}

func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:   options.NewDefaultOptions(),
		ResidualOptions: NewDefaultResidualOptions(),
		ResidualWindow:  DefaultResidualWindow,
		Coverage:        DefaultCoverage,
	}
}

// Validate fills in missing options with defaults and rejects invalid values
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.SeriesOptions == nil {
		o.SeriesOptions = options.NewDefaultOptions()
	}
	if o.ResidualOptions == nil {
		o.ResidualOptions = NewDefaultResidualOptions()
	}
	if o.ResidualWindow == 0 {
		o.ResidualWindow = DefaultResidualWindow
	}
	if o.ResidualWindow < MinResidualWindow {
		return nil, fmt.Errorf("residual window of %d, %w", o.ResidualWindow, ErrInvalidResidualWindow)
	}
	if _, err := ZScore(o.Coverage); err != nil {
		return nil, err
	}
	if oo := o.OutlierOptions; oo != nil {
		if oo.NumPasses < 0 || oo.LowerPercentile < 0 || oo.UpperPercentile > 1 || oo.LowerPercentile >= oo.UpperPercentile {
			return nil, fmt.Errorf("%+v, %w", *oo, ErrInvalidOutlierOptions)
		}
	}
	return o, nil
}
