// Package forecaster fits a forecast of a daily series together with a forecast of its
// uncertainty. The uncertainty forecast is fit on the rolling standard deviation of the series
// residual and scaled by the normal quantile of the requested coverage to produce prediction
// intervals.
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/aouyang1/demandcast/forecast"
	"github.com/aouyang1/demandcast/stats"
	"github.com/aouyang1/demandcast/timedataset"
	"github.com/go-echarts/go-echarts/v2/components"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInsufficientResidual = errors.New("insufficient samples from residual after outlier removal")
	ErrEmptyTimeDataset     = errors.New("no timedataset or uninitialized")
	ErrInvalidCoverage      = errors.New("coverage must be between 0 and 1")
	ErrUntrainedForecaster  = errors.New("forecaster has not been trained yet")
)

const (
	MinResidualWindow       = 2
	MinResidualSize         = 3
	MinResidualWindowFactor = 4

	// VIFWarnThreshold flags regressors that are close to a linear combination of the others
	VIFWarnThreshold = 10.0

	// maxQuantile bounds the normal quantile so a full coverage stays finite
	maxQuantile = 1 - 1e-9
)

// ZScore returns the two sided standard normal quantile for the coverage
func ZScore(coverage float64) (float64, error) {
	if math.IsNaN(coverage) || coverage < 0 || coverage > 1 {
		return 0, fmt.Errorf("coverage of %v, %w", coverage, ErrInvalidCoverage)
	}
	p := math.Min((1.0+coverage)/2.0, maxQuantile)
	return distuv.UnitNormal.Quantile(p), nil
}

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast   *forecast.Forecast
	residualForecast *forecast.Forecast

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	residualWindow  int
	residualFloor   float64
	trained         bool
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	f := &Forecaster{
		opt: opt,
	}

	seriesForecast, err := forecast.New(f.opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	f.seriesForecast = seriesForecast

	residualForecast, err := forecast.New(f.opt.ResidualOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast residual, %w", err)
	}
	f.residualForecast = residualForecast
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model. Regressors must be indexed by t
// and hold every regressor named in the series options.
func (f *Forecaster) Fit(t []time.Time, y []float64, regressors *timedataset.Frame) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.fitTrainingData = td.Copy()
	warnCollinearRegressors(regressors)

	residual, err := f.fitSeriesWithOutliers(td.T, td.Y, regressors)
	if err != nil {
		return err
	}
	f.residual = residual

	if err := f.fitResidual(td.T, residual); err != nil {
		return err
	}
	f.trained = true

	f.fitResults, err = f.Predict(t, regressors, f.opt.Coverage)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}

	return nil
}

func warnCollinearRegressors(regressors *timedataset.Frame) {
	if regressors == nil || len(regressors.Names()) < 2 {
		return
	}
	names := regressors.Names()
	cols := make([][]float64, 0, len(names))
	for _, name := range names {
		col, err := regressors.Column(name)
		if err != nil {
			return
		}
		cols = append(cols, col)
	}
	vif, err := stats.VarianceInflationFactor(names, cols)
	if err != nil {
		slog.Warn("unable to compute regressor variance inflation factor", "error", err.Error())
		return
	}
	for _, name := range names {
		if vif[name] > VIFWarnThreshold {
			slog.Warn("regressor is nearly collinear with other regressors", "name", name, "vif", vif[name])
		}
	}
}

// fitSeriesWithOutliers fits the series and, when outlier options are set, blanks the days whose
// residual falls outside of the Tukey fence before refitting. Returns the residual of the last fit.
func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64, regressors *timedataset.Frame) ([]float64, error) {
	oo := f.opt.OutlierOptions
	for pass := 0; ; pass++ {
		if err := f.seriesForecast.Fit(t, y, regressors); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}
		residual := f.seriesForecast.Residuals()
		if oo == nil || pass >= oo.NumPasses {
			return residual, nil
		}

		outliers := stats.DetectOutliers(residual, oo.LowerPercentile, oo.UpperPercentile, oo.TukeyFactor)
		if len(outliers) == 0 {
			return residual, nil
		}
		slog.Debug("removing outlier days", "pass", pass, "count", len(outliers))
		for _, idx := range outliers {
			y[idx] = math.NaN()
		}
	}
}

// residualWindowSize bounds the rolling window to a quarter of the observed residual points
// and to at least MinResidualWindow.
func residualWindowSize(want, observed int) int {
	return max(min(want, observed/MinResidualWindowFactor), MinResidualWindow)
}

func (f *Forecaster) fitResidual(t []time.Time, residual []float64) error {
	// the window is not necessarily a block of continuous time but could jump across
	// outlier and missing points
	residualData, err := timedataset.NewUnivariateDataset(t, residual)
	if err != nil {
		return fmt.Errorf("unable to create univariate dataset for residual, %w", err)
	}
	residualData = residualData.DropNan()
	if len(residualData.Y) < MinResidualSize {
		return fmt.Errorf("%d residual points, %w", len(residualData.Y), ErrInsufficientResidual)
	}

	window := residualWindowSize(f.opt.ResidualWindow, len(residualData.Y))
	f.residualWindow = window

	stddevSeries, err := stats.RollingStd(residualData.Y, window)
	if err != nil {
		return fmt.Errorf("unable to compute rolling residual deviation, %w", err)
	}
	f.residualFloor = floats.Min(stddevSeries)

	// shifting by half the residual window since computing the residual series is similar to a
	// finite impulse response filtering having a group delay of window/2.
	start := window / 2
	end := start + len(stddevSeries)

	if err := f.residualForecast.Fit(residualData.T[start:end], stddevSeries, nil); err != nil {
		return fmt.Errorf("unable to forecast residual, %w", err)
	}

	return nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time
// point. The interval is the forecast plus or minus the normal quantile of the coverage times the
// predicted residual standard deviation.
func (f *Forecaster) Predict(t []time.Time, regressors *timedataset.Frame, coverage float64) (*Results, error) {
	if f == nil || !f.trained {
		return nil, ErrUntrainedForecaster
	}
	z, err := ZScore(coverage)
	if err != nil {
		return nil, err
	}

	seriesRes, seriesComp, err := f.seriesForecast.Predict(t, regressors)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}
	residualRes, residualComp, err := f.residualForecast.Predict(t, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to predict residual forecasts, %w", err)
	}

	r := &Results{
		T:                  t,
		Forecast:           seriesRes,
		Upper:              make([]float64, len(seriesRes)),
		Lower:              make([]float64, len(seriesRes)),
		Coverage:           coverage,
		SeriesComponents:   seriesComp,
		ResidualComponents: residualComp,
	}
	for i, yhat := range seriesRes {
		// the deviation never drops below the smallest one observed in training
		width := z * math.Max(residualRes[i], f.residualFloor)
		r.Upper[i] = yhat + width
		r.Lower[i] = yhat - width
	}
	return r, nil
}

// Residuals returns the difference between the final series fit against the training data
func (f *Forecaster) Residuals() []float64 {
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// ResidualWindow returns the rolling window used to compute the residual deviation on fit
func (f *Forecaster) ResidualWindow() int {
	return f.residualWindow
}

// FitComponents returns the additive components of the series fit over the training days
func (f *Forecaster) FitComponents() forecast.Components {
	return f.seriesForecast.TrainComponents()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// Scores returns the fit scores of the series model against the training data
func (f *Forecaster) Scores() forecast.Scores {
	return f.seriesForecast.Scores()
}

// Model generates a summary of the fit options, series model, and uncertainty model
func (f *Forecaster) Model() (Model, error) {
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	residualModel, err := f.residualForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch residual model, %w", err)
	}
	m := Model{
		Options:     f.opt,
		Series:      seriesModel,
		Uncertainty: residualModel,
	}
	return m, nil
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// ResidualModelEq returns a string representation of the fit uncertainty model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) ResidualModelEq() (string, error) {
	return f.residualForecast.ModelEq()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// PlotOpts sets the horizon to forecast out. By default will use 10% of the training size
// at a daily interval. Regressors must be indexed by the horizon when the series has any.
type PlotOpts struct {
	HorizonCnt      int
	HorizonInterval time.Duration
	Regressors      *timedataset.Frame
}

// plotHorizon returns the days to forecast past the training data. Horizon regressors fix the
// days, otherwise HorizonCnt points are spaced HorizonInterval apart.
func plotHorizon(lastTime time.Time, trainCnt int, opt *PlotOpts) []time.Time {
	cnt := trainCnt / 10
	interval := timedataset.Day
	if opt != nil {
		if opt.Regressors != nil {
			return opt.Regressors.T
		}
		cnt = opt.HorizonCnt
		if opt.HorizonInterval > 0 {
			interval = opt.HorizonInterval
		}
	}
	cnt = max(cnt, 1)

	horizon := make([]time.Time, cnt)
	for i := range horizon {
		horizon[i] = lastTime.Add(time.Duration(i+1) * interval)
	}
	return horizon
}

// PlotFit uses the Apache Echarts library to generate an html page showing the resulting fit,
// model components, and fit residual
func (f *Forecaster) PlotFit(w io.Writer, opt *PlotOpts) error {
	if f == nil || !f.trained {
		return ErrUntrainedForecaster
	}
	td := f.TrainingData()
	if td == nil || len(td.T) == 0 {
		return ErrEmptyTimeDataset
	}

	var horizonRegressors *timedataset.Frame
	if opt != nil {
		horizonRegressors = opt.Regressors
	}
	horizon := plotHorizon(td.T[len(td.T)-1], len(td.T), opt)
	forecastRes, err := f.Predict(horizon, horizonRegressors, f.opt.Coverage)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	t := append(slices.Clone(td.T), horizon...)
	nanPad := make([]float64, len(horizon))
	floats.AddConst(math.NaN(), nanPad)

	fit := f.FitComponents()
	next := forecastRes.SeriesComponents
	page := components.NewPage()
	page.AddCharts(
		LineForecaster(td, f.fitResults, forecastRes),
		LineTSeries(
			"Forecast Components",
			[]string{"Trend", "Seasonality", "Holiday", "Regressor"},
			t,
			[][]float64{
				append(fit.Trend, next.Trend...),
				append(fit.Seasonality, next.Seasonality...),
				append(fit.Event, next.Event...),
				append(fit.Regressor, next.Regressor...),
			},
		),
		LineTSeries(
			"Forecast Residual",
			[]string{"Residual"},
			t,
			[][]float64{append(f.Residuals(), nanPad...)},
		),
	)
	return page.Render(w)
}
