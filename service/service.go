// Package service owns the lifecycle of the fitted demand model. Fit trains one forecast per
// target column of a date indexed table and atomically replaces the current model. Predict
// forecasts every target of the current model over a daily horizon with prediction intervals.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	forecaster "github.com/aouyang1/demandcast"
	"github.com/aouyang1/demandcast/calendar"
	"github.com/aouyang1/demandcast/forecast"
	"github.com/aouyang1/demandcast/tabular"
	"github.com/aouyang1/demandcast/timedataset"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownTarget = errors.New("target is not part of the fitted model")

// Model is an immutable fitted model bound to its target columns and regressor source
type Model struct {
	Targets    []string
	Source     RegressorSource
	TrainStart time.Time
	TrainEnd   time.Time
	FittedAt   time.Time

	forecasters map[string]*forecaster.Forecaster
}

// Forecaster returns the fitted forecaster of a target
func (m *Model) Forecaster(target string) (*forecaster.Forecaster, error) {
	f, exists := m.forecasters[target]
	if !exists {
		return nil, fmt.Errorf("%q, %w", target, ErrUnknownTarget)
	}
	return f, nil
}

// PredictRequest is a forecast horizon from Start to End inclusive. A nil Coverage uses the
// service default. FeaturesData holds one value per horizon day for every explicit regressor.
type PredictRequest struct {
	Start        time.Time
	End          time.Time
	Coverage     *float64
	FeaturesData map[string][]float64
}

// Service holds at most one fitted model. Fits are serialized and swap the model atomically so
// predictions always see a complete model.
type Service struct {
	opt     *Options
	deriver *calendar.Deriver
	metrics *Metrics
	logger  zerolog.Logger

	fitMu sync.Mutex
	model atomic.Pointer[Model]
}

// New creates a service without a fitted model. If no options are provided a default is used.
func New(opt *Options) (*Service, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Service{
		opt:     opt,
		deriver: calendar.NewDeriver(opt.StateHolidays),
		metrics: NewMetrics(opt.Registerer),
		logger:  opt.Logger,
	}, nil
}

// Metrics returns the prometheus collectors of the service
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Model returns the current fitted model or ErrInvalidState if none has been fit
func (s *Service) Model() (*Model, error) {
	m := s.model.Load()
	if m == nil {
		return nil, ErrInvalidState
	}
	return m, nil
}

// Fit decodes a parquet table and fits the targets. See FitFrame.
func (s *Service) Fit(ctx context.Context, data []byte, targets, features []string) error {
	start := time.Now()
	frame, err := tabular.Decode(ctx, data, &tabular.Options{IndexColumn: s.opt.IndexColumn})
	if err != nil {
		err = fmt.Errorf("unable to decode table, %w: %w", ErrInvalidInput, err)
		s.observeFit(start, targets, 0, err)
		return err
	}
	return s.FitFrame(ctx, frame, targets, features)
}

// FitFrame fits one forecast per target column. A non empty features list uses those columns as
// regressors, otherwise calendar features are derived from the frame dates. The current model is
// replaced only when every target fits.
func (s *Service) FitFrame(ctx context.Context, frame *timedataset.Frame, targets, features []string) error {
	start := time.Now()
	var rows int
	if frame != nil {
		rows = frame.Len()
	}

	s.fitMu.Lock()
	defer s.fitMu.Unlock()

	m, err := s.fit(frame, targets, features)
	if err == nil {
		s.model.Store(m)
		s.metrics.FittedTargets.Set(float64(len(m.Targets)))
	}
	s.observeFit(start, targets, rows, err)
	return err
}

func (s *Service) observeFit(start time.Time, targets []string, rows int, err error) {
	elapsed := time.Since(start)
	kind := Kind(err)
	s.metrics.Fits.WithLabelValues(kind).Inc()
	s.metrics.FitDuration.Observe(elapsed.Seconds())

	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Strs("targets", targets).Int("rows", rows).Dur("duration", elapsed).Msg("fit failed")
		return
	}
	s.logger.Info().Strs("targets", targets).Int("rows", rows).Dur("duration", elapsed).Msg("fit complete")
}

func validateColumns(frame *timedataset.Frame, kind string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate %s %q, %w", kind, name, ErrInvalidInput)
		}
		seen[name] = struct{}{}
		if !frame.Has(name) {
			return fmt.Errorf("%s %q not found in table, %w", kind, name, ErrInvalidInput)
		}
	}
	return nil
}

func (s *Service) fit(frame *timedataset.Frame, targets, features []string) (*Model, error) {
	if frame == nil || frame.Len() == 0 {
		return nil, fmt.Errorf("empty table, %w", ErrInvalidInput)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets, %w", ErrInvalidInput)
	}
	if err := validateColumns(frame, "target", targets); err != nil {
		return nil, err
	}
	if err := validateColumns(frame, "feature", features); err != nil {
		return nil, err
	}
	for _, target := range targets {
		y, _ := frame.Column(target)
		for i, v := range y {
			if math.IsInf(v, 0) {
				return nil, fmt.Errorf("target %q is infinite at row %d, %w", target, i, ErrInvalidInput)
			}
		}
	}
	for _, feat := range features {
		if slices.Contains(targets, feat) {
			return nil, fmt.Errorf("%q is both a target and a feature, %w", feat, ErrInvalidInput)
		}
	}

	source := AutoDerived()
	var regressors *timedataset.Frame
	var err error
	if len(features) > 0 {
		source = Explicit(features)
		regressors, err = frame.Select(features)
	} else {
		regressors, err = s.deriver.Derive(frame.T)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to build regressors, %w: %w", ErrInvalidInput, err)
	}
	regressorNames := regressors.Names()

	fitted := make([]*forecaster.Forecaster, len(targets))
	var g errgroup.Group
	g.SetLimit(s.opt.Parallelization)
	for i, target := range targets {
		g.Go(func() error {
			y, err := frame.Column(target)
			if err != nil {
				return fmt.Errorf("target %q, %w: %w", target, ErrInvalidInput, err)
			}
			f, err := forecaster.New(s.opt.forecasterOptions(regressorNames))
			if err != nil {
				return fmt.Errorf("target %q, %w: %w", target, ErrTrainingFailure, err)
			}
			if err := f.Fit(frame.T, y, regressors); err != nil {
				return fmt.Errorf("unable to fit target %q, %w: %w", target, ErrTrainingFailure, err)
			}
			if err := checkFinite(f); err != nil {
				return fmt.Errorf("target %q, %w: %w", target, ErrTrainingFailure, err)
			}
			fitted[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Model{
		Targets:     slices.Clone(targets),
		Source:      source,
		TrainStart:  frame.T.StartTime(),
		TrainEnd:    frame.T.EndTime(),
		FittedAt:    time.Now().UTC(),
		forecasters: make(map[string]*forecaster.Forecaster, len(targets)),
	}
	for i, target := range targets {
		m.forecasters[target] = fitted[i]
	}
	return m, nil
}

var errNonFiniteFit = errors.New("fit produced non-finite values")

// checkFinite rejects fits whose training forecast diverged
func checkFinite(f *forecaster.Forecaster) error {
	res := f.FitResults()
	if res == nil {
		return errNonFiniteFit
	}
	for _, series := range [][]float64{res.Forecast, res.Upper, res.Lower} {
		for _, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errNonFiniteFit
			}
		}
	}
	return nil
}

// Predict forecasts every target of the current model from the request start to end inclusive.
// Predictions and bounds are clipped at zero.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (map[string]*Forecast, error) {
	start := time.Now()
	res, err := s.predict(req)

	elapsed := time.Since(start)
	kind := Kind(err)
	s.metrics.Predicts.WithLabelValues(kind).Inc()
	s.metrics.PredictDuration.Observe(elapsed.Seconds())
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Time("start", req.Start).Time("end", req.End).Msg("predict failed")
		return nil, err
	}
	s.logger.Debug().Time("start", req.Start).Time("end", req.End).Int("targets", len(res)).Dur("duration", elapsed).Msg("predict complete")
	return res, nil
}

func (s *Service) predict(req PredictRequest) (map[string]*Forecast, error) {
	m := s.model.Load()
	if m == nil {
		return nil, ErrInvalidState
	}

	coverage := s.opt.DefaultCoverage
	if req.Coverage != nil {
		coverage = *req.Coverage
	}
	if math.IsNaN(coverage) || coverage < 0 || coverage > 1 {
		return nil, fmt.Errorf("coverage of %v must be between 0 and 1, %w", coverage, ErrInvalidInput)
	}

	horizon, err := timedataset.DailyRange(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	regressors, err := s.horizonRegressors(m, horizon, req.FeaturesData)
	if err != nil {
		return nil, err
	}
	return s.predictTargets(m, horizon, regressors, coverage)
}

// horizonRegressors builds the regressors of the horizon from the model regressor source
func (s *Service) horizonRegressors(m *Model, horizon timedataset.TimeSlice, data map[string][]float64) (*timedataset.Frame, error) {
	if !m.Source.IsExplicit() {
		if len(data) > 0 {
			return nil, fmt.Errorf("model uses derived calendar features but features were supplied, %w", ErrFeatureMismatch)
		}
		frame, err := s.deriver.Derive(horizon)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return frame, nil
	}

	columns := m.Source.Columns()
	if len(data) == 0 {
		return nil, fmt.Errorf("model requires features %v, %w", columns, ErrFeatureMismatch)
	}
	for name := range data {
		if !slices.Contains(columns, name) {
			return nil, fmt.Errorf("unexpected feature %q, model was fit with %v, %w", name, columns, ErrFeatureMismatch)
		}
	}

	frame, err := timedataset.NewFrame(horizon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for _, name := range columns {
		vals, exists := data[name]
		if !exists {
			return nil, fmt.Errorf("missing feature %q, %w", name, ErrFeatureMismatch)
		}
		if len(vals) != len(horizon) {
			return nil, fmt.Errorf(
				"feature %q has %d values for a horizon of %d days, %w",
				name, len(vals), len(horizon), ErrFeatureMismatch,
			)
		}
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("feature %q is not finite at %d, %w", name, i, ErrFeatureMismatch)
			}
		}
		if err := frame.AddColumn(name, vals); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFeatureMismatch, err)
		}
	}
	return frame, nil
}

func (s *Service) predictTargets(m *Model, t []time.Time, regressors *timedataset.Frame, coverage float64) (map[string]*Forecast, error) {
	forecasts := make([]*Forecast, len(m.Targets))
	var g errgroup.Group
	g.SetLimit(s.opt.Parallelization)
	for i, target := range m.Targets {
		g.Go(func() error {
			res, err := m.forecasters[target].Predict(t, regressors, coverage)
			if err != nil {
				return fmt.Errorf("unable to predict target %q, %w", target, err)
			}
			res.Clip(0)
			forecasts[i] = &Forecast{
				Dates:       slices.Clone(t),
				Predictions: res.Forecast,
				LowerBound:  res.Lower,
				UpperBound:  res.Upper,
				Coverage:    coverage,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Forecast, len(m.Targets))
	for i, target := range m.Targets {
		out[target] = forecasts[i]
	}
	return out, nil
}

// Description summarizes the current fitted model
type Description struct {
	Targets    []string                   `json:"targets"`
	Source     string                     `json:"regressor_source"`
	Regressors []string                   `json:"regressors"`
	TrainStart time.Time                  `json:"train_start"`
	TrainEnd   time.Time                  `json:"train_end"`
	FittedAt   time.Time                  `json:"fitted_at"`
	Scores     map[string]forecast.Scores `json:"scores"`
}

// Describe returns the summary of the current fitted model with its training fit scores
func (s *Service) Describe() (*Description, error) {
	m, err := s.Model()
	if err != nil {
		return nil, err
	}
	regressors := m.Source.Columns()
	if !m.Source.IsExplicit() {
		regressors = slices.Clone(calendar.Columns)
	}
	d := &Description{
		Targets:    slices.Clone(m.Targets),
		Source:     m.Source.String(),
		Regressors: regressors,
		TrainStart: m.TrainStart,
		TrainEnd:   m.TrainEnd,
		FittedAt:   m.FittedAt,
		Scores:     make(map[string]forecast.Scores, len(m.Targets)),
	}
	for _, target := range m.Targets {
		d.Scores[target] = m.forecasters[target].Scores()
	}
	return d, nil
}

// Evaluate forecasts the dates of a held out frame and scores the predictions of every target
// against its observed values. Explicit regressors are read from the frame. Missing observations
// are skipped.
func (s *Service) Evaluate(ctx context.Context, frame *timedataset.Frame) (map[string]forecast.Scores, error) {
	m, err := s.Model()
	if err != nil {
		return nil, err
	}
	if frame == nil || frame.Len() == 0 {
		return nil, fmt.Errorf("empty table, %w", ErrInvalidInput)
	}
	if err := validateColumns(frame, "target", m.Targets); err != nil {
		return nil, err
	}

	var regressors *timedataset.Frame
	if m.Source.IsExplicit() {
		regressors, err = frame.Select(m.Source.Columns())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFeatureMismatch, err)
		}
	} else {
		regressors, err = s.deriver.Derive(frame.T)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	forecasts, err := s.predictTargets(m, frame.T, regressors, s.opt.DefaultCoverage)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]forecast.Scores, len(m.Targets))
	for _, target := range m.Targets {
		actual, err := frame.Column(target)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		var predicted, observed []float64
		for i, v := range actual {
			if math.IsNaN(v) {
				continue
			}
			predicted = append(predicted, forecasts[target].Predictions[i])
			observed = append(observed, v)
		}
		if len(observed) == 0 {
			return nil, fmt.Errorf("target %q has no observations, %w", target, ErrInvalidInput)
		}
		sc, err := forecast.NewScores(predicted, observed)
		if err != nil {
			return nil, err
		}
		scores[target] = *sc
	}
	return scores, nil
}

// Plot renders the training fit of a target followed by its forecast over the request horizon as
// an html page. Intervals use the default coverage.
func (s *Service) Plot(w io.Writer, target string, req PredictRequest) error {
	m, err := s.Model()
	if err != nil {
		return err
	}
	f, err := m.Forecaster(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	horizon, err := timedataset.DailyRange(req.Start, req.End)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	regressors, err := s.horizonRegressors(m, horizon, req.FeaturesData)
	if err != nil {
		return err
	}
	return f.PlotFit(w, &forecaster.PlotOpts{Regressors: regressors})
}
