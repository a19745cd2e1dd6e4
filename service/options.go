package service

import (
	"errors"
	"fmt"
	"math"

	forecaster "github.com/aouyang1/demandcast"
	"github.com/aouyang1/demandcast/config"
	"github.com/aouyang1/demandcast/forecast/options"
	"github.com/aouyang1/demandcast/holiday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	DefaultCoverage        = 0.9
	DefaultParallelization = 4
	DefaultIndexColumn     = "date"
)

var (
	ErrInvalidParallelization = errors.New("parallelization must be at least 1")
	ErrInvalidCoverage        = errors.New("default coverage must be between 0 and 1")
)

// Options configures the service and the forecast fit on every target
type Options struct {
	// DefaultCoverage is used by predictions without a coverage, zero selects 0.9
	DefaultCoverage float64
	Parallelization int
	IndexColumn     string

	// Regularization is the L2 penalty of the fit, zero fits with ordinary least squares
	Regularization float64

	// Changepoints is the number of automatic trend changepoints, zero selects the default
	// and a negative value fits a single trend
	Changepoints     int
	ChangepointRange float64
	ResidualWindow   int
	OutlierPasses    int

	// NationalHolidays are modelled as one day effects of every target
	NationalHolidays *holiday.Calendar

	// StateHolidays flag the holiday column of the auto derived calendar features
	StateHolidays *holiday.Calendar

	Registerer prometheus.Registerer
	Logger     zerolog.Logger
}

func NewDefaultOptions() *Options {
	return &Options{
		DefaultCoverage:  DefaultCoverage,
		Parallelization:  DefaultParallelization,
		IndexColumn:      DefaultIndexColumn,
		Regularization:   options.DefaultRegularization,
		Changepoints:     options.DefaultAutoNumChangepoints,
		ChangepointRange: options.DefaultChangepointRange,
		ResidualWindow:   forecaster.DefaultResidualWindow,
		NationalHolidays: holiday.BrazilCalendar(),
		StateHolidays:    holiday.RioGrandeDoNorteCalendar(),
		Logger:           zerolog.Nop(),
	}
}

// NewOptionsFromConfig builds the service options of a loaded configuration. Holiday calendars
// are created with the configured cache size.
func NewOptionsFromConfig(cfg *config.Config, reg prometheus.Registerer, logger zerolog.Logger) (*Options, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	national, err := holiday.NewCalendar(holiday.Brazil, cfg.Holiday.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create national holiday calendar, %w", err)
	}
	state, err := holiday.NewCalendar(holiday.RioGrandeDoNorte, cfg.Holiday.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create state holiday calendar, %w", err)
	}
	return &Options{
		DefaultCoverage:  cfg.Model.DefaultCoverage,
		Parallelization:  cfg.Model.Parallelization,
		IndexColumn:      cfg.Table.IndexColumn,
		Regularization:   cfg.Model.Regularization,
		Changepoints:     changepoints(cfg.Model.Changepoints),
		ChangepointRange: cfg.Model.ChangepointRange,
		ResidualWindow:   cfg.Model.ResidualWindow,
		OutlierPasses:    cfg.Model.OutlierPasses,
		NationalHolidays: national,
		StateHolidays:    state,
		Registerer:       reg,
		Logger:           logger,
	}, nil
}

// changepoints maps the configured number of changepoints where zero disables them
func changepoints(configured int) int {
	if configured == 0 {
		return -1
	}
	return configured
}

// forecasterOptions creates the options of one target forecast with the named regressors
func (o *Options) forecasterOptions(regressors []string) *forecaster.Options {
	series := options.NewDefaultOptions()
	series.Regularization = o.Regularization
	series.ChangepointOptions.AutoNumChangepoints = max(o.Changepoints, 0)
	series.ChangepointOptions.Range = o.ChangepointRange
	series.ChangepointOptions.Auto = o.Changepoints > 0
	series.HolidayOptions.Calendar = o.NationalHolidays
	series.RegressorOptions = options.NewRegressorOptions(regressors)

	residual := forecaster.NewDefaultResidualOptions()
	residual.Regularization = o.Regularization

	var outlier *forecaster.OutlierOptions
	if o.OutlierPasses > 0 {
		outlier = forecaster.NewOutlierOptions()
		outlier.NumPasses = o.OutlierPasses
	}

	return &forecaster.Options{
		SeriesOptions:   series,
		ResidualOptions: residual,
		OutlierOptions:  outlier,
		ResidualWindow:  o.ResidualWindow,
		Coverage:        o.DefaultCoverage,
	}
}

// Validate fills in missing options with defaults and rejects invalid values
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.DefaultCoverage == 0 {
		o.DefaultCoverage = DefaultCoverage
	}
	if math.IsNaN(o.DefaultCoverage) || o.DefaultCoverage < 0 || o.DefaultCoverage > 1 {
		return nil, fmt.Errorf("default coverage of %v, %w", o.DefaultCoverage, ErrInvalidCoverage)
	}
	if o.Parallelization == 0 {
		o.Parallelization = DefaultParallelization
	}
	if o.Parallelization < 0 {
		return nil, fmt.Errorf("parallelization of %d, %w", o.Parallelization, ErrInvalidParallelization)
	}
	if o.IndexColumn == "" {
		o.IndexColumn = DefaultIndexColumn
	}
	if o.Changepoints == 0 {
		o.Changepoints = options.DefaultAutoNumChangepoints
	}
	if o.ChangepointRange == 0 {
		o.ChangepointRange = options.DefaultChangepointRange
	}
	if o.NationalHolidays == nil {
		o.NationalHolidays = holiday.BrazilCalendar()
	}
	if o.StateHolidays == nil {
		o.StateHolidays = holiday.RioGrandeDoNorteCalendar()
	}
	if _, err := forecaster.New(o.forecasterOptions(nil)); err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}
	return o, nil
}
