package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aouyang1/demandcast/calendar"
	"github.com/aouyang1/demandcast/config"
	"github.com/aouyang1/demandcast/timedataset"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

// salesFrame is a daily sales table with a weekly pattern, a slow trend, and a promo regressor
// active every fifth day that lifts sales by 20.
func salesFrame(t *testing.T, n int) *timedataset.Frame {
	t.Helper()

	days := timedataset.GenerateDays(trainStart, n)
	promo := make([]float64, n)
	promoEffect := make(timedataset.Series, n)
	for i := range promo {
		if i%5 == 0 {
			promo[i] = 1
			promoEffect[i] = 20
		}
	}
	sales := timedataset.GenerateConstY(n, 50).
		Add(timedataset.GenerateTrendY(days, 0.05)).
		Add(timedataset.GenerateWeekdayY(days, [7]float64{4, 5, 3, 6, 10, -12, -16})).
		Add(timedataset.GenerateNoise(days, 1, 7)).
		Add(promoEffect).
		Clip(0)
	returns := timedataset.GenerateConstY(n, 20).
		Add(timedataset.GenerateWeekdayY(days, [7]float64{1, 1, 1, 1, 2, -3, -4})).
		Add(timedataset.GenerateNoise(days, 0.5, 11)).
		Clip(0)

	frame, err := timedataset.NewFrame(days)
	require.NoError(t, err)
	require.NoError(t, frame.AddColumn("sales", sales))
	require.NoError(t, frame.AddColumn("returns", returns))
	require.NoError(t, frame.AddColumn("promo", promo))
	return frame
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := New(nil)
	require.NoError(t, err)
	return s
}

func TestKind(t *testing.T) {
	testData := map[string]struct {
		err      error
		expected string
	}{
		"nil":              {nil, KindOK},
		"invalid input":    {ErrInvalidInput, KindInvalidInput},
		"wrapped input":    {fmt.Errorf("end before start, %w", ErrInvalidInput), KindInvalidInput},
		"invalid state":    {ErrInvalidState, KindInvalidState},
		"feature mismatch": {ErrFeatureMismatch, KindFeatureMismatch},
		"training failure": {fmt.Errorf("target sales, %w", ErrTrainingFailure), KindTrainingFailure},
		"unknown":          {ErrUnknownTarget, KindInternal},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Kind(td.err))
		})
	}
}

func TestPredictBeforeFit(t *testing.T) {
	s := newService(t)
	_, err := s.Predict(context.Background(), PredictRequest{
		Start: time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.Describe()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFitPredictSales(t *testing.T) {
	s := newService(t)
	frame := salesFrame(t, 100)
	require.NoError(t, s.FitFrame(context.Background(), frame, []string{"sales"}, nil))

	start := time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)
	res, err := s.Predict(context.Background(), PredictRequest{Start: start, End: end})
	require.NoError(t, err)
	require.Contains(t, res, "sales")
	require.Len(t, res, 1)

	fc := res["sales"]
	assert.Equal(t, 0.9, fc.Coverage)
	require.Len(t, fc.Dates, 14)
	require.Len(t, fc.Predictions, 14)
	require.Len(t, fc.LowerBound, 14)
	require.Len(t, fc.UpperBound, 14)
	assert.True(t, start.Equal(fc.Dates[0]))
	assert.True(t, end.Equal(fc.Dates[13]))
	for i := range fc.Dates {
		assert.GreaterOrEqual(t, fc.Predictions[i], 0.0, "prediction %d", i)
		assert.GreaterOrEqual(t, fc.LowerBound[i], 0.0, "lower %d", i)
		assert.LessOrEqual(t, fc.LowerBound[i], fc.Predictions[i], "lower %d", i)
		assert.GreaterOrEqual(t, fc.UpperBound[i], fc.Predictions[i], "upper %d", i)
		assert.False(t, math.IsNaN(fc.Predictions[i]))
	}

	// 2024-04-13 is a saturday and 2024-04-14 a sunday, both below the friday
	assert.Less(t, fc.Predictions[3], fc.Predictions[1])
	assert.Less(t, fc.Predictions[2], fc.Predictions[1])
}

func assertForecast(t *testing.T, fc *Forecast, days int) {
	t.Helper()
	require.Len(t, fc.Dates, days)
	require.Len(t, fc.Predictions, days)
	require.Len(t, fc.LowerBound, days)
	require.Len(t, fc.UpperBound, days)
	for i := range fc.Dates {
		assert.False(t, math.IsNaN(fc.Predictions[i]), "prediction %d", i)
		assert.GreaterOrEqual(t, fc.LowerBound[i], 0.0, "lower %d", i)
		assert.LessOrEqual(t, fc.LowerBound[i], fc.Predictions[i], "lower %d", i)
		assert.GreaterOrEqual(t, fc.UpperBound[i], fc.Predictions[i], "upper %d", i)
	}
}

func TestFitPredictSalesLeastSquares(t *testing.T) {
	testData := map[string]struct {
		features []string
	}{
		"derived calendar features": {},
		"promo regressor":           {features: []string{"promo"}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultOptions()
			opt.Regularization = 0
			opt.Registerer = prometheus.NewRegistry()
			s, err := New(opt)
			require.NoError(t, err)

			frame := salesFrame(t, 100)
			require.NoError(t, s.FitFrame(context.Background(), frame, []string{"sales"}, td.features))

			req := PredictRequest{
				Start: time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 4, 17, 0, 0, 0, 0, time.UTC),
			}
			if len(td.features) > 0 {
				req.FeaturesData = map[string][]float64{"promo": {0, 0, 1, 0, 0, 0, 0}}
			}
			res, err := s.Predict(context.Background(), req)
			require.NoError(t, err)
			require.Contains(t, res, "sales")
			assertForecast(t, res["sales"], 7)
			assert.Equal(t, DefaultCoverage, res["sales"].Coverage)
		})
	}
}

func TestNewPartialOptions(t *testing.T) {
	testData := map[string]struct {
		opt *Options
	}{
		"registerer only": {
			opt: &Options{Registerer: prometheus.NewRegistry()},
		},
		"model settings without coverage": {
			opt: &Options{Registerer: prometheus.NewRegistry(), Regularization: 0.1, Changepoints: 25},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, err := New(td.opt)
			require.NoError(t, err)
			assert.Equal(t, DefaultCoverage, s.opt.DefaultCoverage)
			assert.Equal(t, DefaultIndexColumn, s.opt.IndexColumn)
			assert.Equal(t, DefaultParallelization, s.opt.Parallelization)
			assert.Positive(t, s.opt.Changepoints)

			require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales"}, nil))
			res, err := s.Predict(context.Background(), PredictRequest{
				Start: time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
			fc := res["sales"]
			assertForecast(t, fc, 2)
			assert.Equal(t, DefaultCoverage, fc.Coverage)
			for i := range fc.Dates {
				assert.Greater(t, fc.UpperBound[i], fc.LowerBound[i], "interval %d", i)
			}
		})
	}

	_, err := New(&Options{DefaultCoverage: 1.5})
	assert.ErrorIs(t, err, ErrInvalidCoverage)
}

func TestNewOptionsFromConfig(t *testing.T) {
	testData := map[string]struct {
		changepoints int
		expected     int
		expAuto      bool
	}{
		"configured changepoints": {changepoints: 10, expected: 10, expAuto: true},
		"single trend":            {changepoints: 0, expected: -1},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Model.Changepoints = td.changepoints
			cfg.Model.Regularization = 0
			opt, err := NewOptionsFromConfig(cfg, prometheus.NewRegistry(), zerolog.Nop())
			require.NoError(t, err)

			s, err := New(opt)
			require.NoError(t, err)
			assert.Equal(t, td.expected, s.opt.Changepoints)
			assert.Equal(t, 0.9, s.opt.DefaultCoverage)
			series := s.opt.forecasterOptions(nil).SeriesOptions
			assert.Equal(t, td.expAuto, series.ChangepointOptions.Auto)
			assert.Zero(t, series.Regularization)
		})
	}
}

func TestPredictSingleDay(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales"}, nil))

	day := time.Date(2024, 4, 11, 15, 30, 0, 0, time.UTC)
	res, err := s.Predict(context.Background(), PredictRequest{Start: day, End: day})
	require.NoError(t, err)
	require.Len(t, res["sales"].Dates, 1)
	assert.True(t, time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC).Equal(res["sales"].Dates[0]))
}

func TestPredictCoverage(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales"}, nil))

	req := PredictRequest{
		Start: time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}

	var prevWidth []float64
	for _, c := range []float64{0, 0.5, 0.8, 0.9, 0.95, 1} {
		req.Coverage = ptr(c)
		res, err := s.Predict(context.Background(), req)
		require.NoError(t, err)
		fc := res["sales"]
		assert.Equal(t, c, fc.Coverage)

		width := make([]float64, len(fc.Dates))
		for i := range width {
			width[i] = fc.UpperBound[i] - fc.LowerBound[i]
			if c == 0 {
				assert.InDelta(t, fc.Predictions[i], fc.UpperBound[i], 1e-9)
				assert.InDelta(t, fc.Predictions[i], fc.LowerBound[i], 1e-9)
			}
			if prevWidth != nil {
				assert.GreaterOrEqual(t, width[i], prevWidth[i], "coverage %v at %d", c, i)
			}
		}
		prevWidth = width
	}
}

func TestPredictInvalidInput(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales"}, nil))

	start := time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		req PredictRequest
		err error
	}{
		"end before start": {
			req: PredictRequest{Start: start, End: start.AddDate(0, 0, -1)},
			err: ErrInvalidInput,
		},
		"coverage above one": {
			req: PredictRequest{Start: start, End: start, Coverage: ptr(1.5)},
			err: ErrInvalidInput,
		},
		"negative coverage": {
			req: PredictRequest{Start: start, End: start, Coverage: ptr(-0.1)},
			err: ErrInvalidInput,
		},
		"nan coverage": {
			req: PredictRequest{Start: start, End: start, Coverage: ptr(math.NaN())},
			err: ErrInvalidInput,
		},
		"features on derived model": {
			req: PredictRequest{
				Start:        start,
				End:          start,
				FeaturesData: map[string][]float64{"promo": {1}},
			},
			err: ErrFeatureMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := s.Predict(context.Background(), td.req)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestFitInvalidInput(t *testing.T) {
	frame := salesFrame(t, 100)
	inf := salesFrame(t, 100)
	infSales, err := inf.Column("sales")
	require.NoError(t, err)
	infSales[4] = math.Inf(1)

	nanPromo, err := timedataset.NewFrame(frame.T)
	require.NoError(t, err)
	sales, err := frame.Column("sales")
	require.NoError(t, err)
	require.NoError(t, nanPromo.AddColumn("sales", sales))
	promo := make([]float64, frame.Len())
	promo[3] = math.NaN()
	require.NoError(t, nanPromo.AddColumn("promo", promo))

	testData := map[string]struct {
		frame    *timedataset.Frame
		targets  []string
		features []string
	}{
		"no frame":             {targets: []string{"sales"}},
		"no targets":           {frame: frame},
		"missing target":       {frame: frame, targets: []string{"revenue"}},
		"duplicate target":     {frame: frame, targets: []string{"sales", "sales"}},
		"missing feature":      {frame: frame, targets: []string{"sales"}, features: []string{"price"}},
		"duplicate feature":    {frame: frame, targets: []string{"sales"}, features: []string{"promo", "promo"}},
		"target as feature":    {frame: frame, targets: []string{"sales"}, features: []string{"sales"}},
		"infinite target":      {frame: inf, targets: []string{"sales"}},
		"missing feature data": {frame: nanPromo, targets: []string{"sales"}, features: []string{"promo"}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := newService(t)
			err := s.FitFrame(context.Background(), td.frame, td.targets, td.features)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = s.Model()
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestFitRollback(t *testing.T) {
	s := newService(t)
	frame := salesFrame(t, 100)
	require.NoError(t, s.FitFrame(context.Background(), frame, []string{"sales"}, nil))
	prev, err := s.Model()
	require.NoError(t, err)

	noPromo, err := frame.Select([]string{"sales"})
	require.NoError(t, err)
	err = s.FitFrame(context.Background(), noPromo, []string{"sales"}, []string{"promo"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	curr, err := s.Model()
	require.NoError(t, err)
	assert.Same(t, prev, curr)
	assert.False(t, curr.Source.IsExplicit())

	// a failure to train any target keeps the prior model as well
	sparse, err := timedataset.NewFrame(frame.T)
	require.NoError(t, err)
	y := make([]float64, frame.Len())
	for i := range y {
		y[i] = math.NaN()
	}
	y[10] = 5
	require.NoError(t, sparse.AddColumn("sales", y))
	err = s.FitFrame(context.Background(), sparse, []string{"sales"}, nil)
	assert.ErrorIs(t, err, ErrTrainingFailure)

	curr, err = s.Model()
	require.NoError(t, err)
	assert.Same(t, prev, curr)

	_, err = s.Predict(context.Background(), PredictRequest{
		Start: time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
}

func TestFitReplacesModel(t *testing.T) {
	s := newService(t)
	frame := salesFrame(t, 100)
	require.NoError(t, s.FitFrame(context.Background(), frame, []string{"sales"}, nil))
	first, err := s.Model()
	require.NoError(t, err)

	require.NoError(t, s.FitFrame(context.Background(), frame, []string{"sales", "returns"}, []string{"promo"}))
	second, err := s.Model()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, []string{"sales", "returns"}, second.Targets)
	assert.Equal(t, []string{"promo"}, second.Source.Columns())

	_, err = second.Forecaster("returns")
	assert.NoError(t, err)
	_, err = second.Forecaster("revenue")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestPredictExplicitFeatures(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales"}, []string{"promo"}))

	start := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)

	testData := map[string]struct {
		data map[string][]float64
		err  error
	}{
		"valid": {
			data: map[string][]float64{"promo": {1, 0, 0, 0, 0}},
		},
		"missing": {
			err: ErrFeatureMismatch,
		},
		"wrong length": {
			data: map[string][]float64{"promo": {1, 0, 0}},
			err:  ErrFeatureMismatch,
		},
		"extra column": {
			data: map[string][]float64{"promo": {1, 0, 0, 0, 0}, "price": {1, 1, 1, 1, 1}},
			err:  ErrFeatureMismatch,
		},
		"renamed column": {
			data: map[string][]float64{"promotion": {1, 0, 0, 0, 0}},
			err:  ErrFeatureMismatch,
		},
		"not finite": {
			data: map[string][]float64{"promo": {1, math.NaN(), 0, 0, 0}},
			err:  ErrFeatureMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := s.Predict(context.Background(), PredictRequest{Start: start, End: end, FeaturesData: td.data})
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			fc := res["sales"]
			require.Len(t, fc.Predictions, 5)

			// promo day 2024-04-10 vs the next wednesday without promo
			res2, err := s.Predict(context.Background(), PredictRequest{
				Start:        start.AddDate(0, 0, 7),
				End:          start.AddDate(0, 0, 7),
				FeaturesData: map[string][]float64{"promo": {0}},
			})
			require.NoError(t, err)
			assert.Greater(t, fc.Predictions[0], res2["sales"].Predictions[0]+10)
		})
	}
}

func TestDescribe(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales", "returns"}, nil))

	d, err := s.Describe()
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "returns"}, d.Targets)
	assert.Equal(t, "auto_derived", d.Source)
	assert.Equal(t, calendar.Columns, d.Regressors)
	assert.True(t, trainStart.Equal(d.TrainStart))
	assert.True(t, trainStart.AddDate(0, 0, 99).Equal(d.TrainEnd))
	require.Contains(t, d.Scores, "sales")
	assert.Greater(t, d.Scores["sales"].R2, 0.4)
	assert.Greater(t, d.Scores["returns"].R2, 0.5)
}

func TestEvaluate(t *testing.T) {
	frame := salesFrame(t, 120)
	train, err := frame.Rows(frame.T[:100])
	require.NoError(t, err)
	test, err := frame.Rows(frame.T[100:])
	require.NoError(t, err)

	s := newService(t)
	_, err = s.Evaluate(context.Background(), test)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.FitFrame(context.Background(), train, []string{"sales"}, []string{"promo"}))
	scores, err := s.Evaluate(context.Background(), test)
	require.NoError(t, err)
	require.Contains(t, scores, "sales")
	assert.Less(t, scores["sales"].MAPE, 0.2)

	noPromo, err := test.Select([]string{"sales"})
	require.NoError(t, err)
	_, err = s.Evaluate(context.Background(), noPromo)
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestNonNegative(t *testing.T) {
	days := timedataset.GenerateDays(trainStart, 100)
	// demand collapses to zero on weekends so the lower bound must be clipped
	y := timedataset.GenerateConstY(len(days), 3).
		Add(timedataset.GenerateWeekdayY(days, [7]float64{0, 0, 0, 0, 0, -3, -3})).
		Add(timedataset.GenerateNoise(days, 1.5, 3)).
		Clip(0)
	frame, err := timedataset.NewFrame(days)
	require.NoError(t, err)
	require.NoError(t, frame.AddColumn("units", y))

	s := newService(t)
	require.NoError(t, s.FitFrame(context.Background(), frame, []string{"units"}, nil))

	res, err := s.Predict(context.Background(), PredictRequest{
		Start:    time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		Coverage: ptr(0.99),
	})
	require.NoError(t, err)
	fc := res["units"]
	for i := range fc.Dates {
		assert.GreaterOrEqual(t, fc.Predictions[i], 0.0)
		assert.GreaterOrEqual(t, fc.LowerBound[i], 0.0)
		assert.GreaterOrEqual(t, fc.UpperBound[i], 0.0)
	}
}

// writeParquet encodes the frame as a parquet table with a date32 column named date
func writeParquet(t *testing.T, frame *timedataset.Frame) []byte {
	t.Helper()

	fields := []arrow.Field{{Name: "date", Type: arrow.FixedWidthTypes.Date32}}
	for _, name := range frame.Names() {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	for _, d := range frame.T {
		b.Field(0).(*array.Date32Builder).Append(arrow.Date32FromTime(d))
	}
	for i, name := range frame.Names() {
		col, err := frame.Column(name)
		require.NoError(t, err)
		b.Field(i+1).(*array.Float64Builder).AppendValues(col, nil)
	}
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, fw.Write(rec))
	require.NoError(t, fw.Close())
	return buf.Bytes()
}

func TestFitParquet(t *testing.T) {
	data := writeParquet(t, salesFrame(t, 100))

	s := newService(t)
	require.NoError(t, s.Fit(context.Background(), data, []string{"sales"}, []string{"promo"}))
	m, err := s.Model()
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, m.Targets)
	assert.True(t, m.Source.IsExplicit())

	err = s.Fit(context.Background(), []byte("not a parquet file"), []string{"sales"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	curr, err := s.Model()
	require.NoError(t, err)
	assert.Same(t, m, curr)
}

func TestForecastJSON(t *testing.T) {
	fc := Forecast{
		Dates: []time.Time{
			time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC),
		},
		Predictions: []float64{10, 12.5},
		LowerBound:  []float64{8, 10},
		UpperBound:  []float64{12, 15},
		Coverage:    0.9,
	}
	out, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dates": ["2024-04-11", "2024-04-12"],
		"predictions": [10, 12.5],
		"lower_bound": [8, 10],
		"upper_bound": [12, 15],
		"coverage": 0.9
	}`, string(out))

	var next Forecast
	require.NoError(t, json.Unmarshal(out, &next))
	assert.Equal(t, fc, next)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, kind string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if labelValue(m, "kind") == kind {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	opt := NewDefaultOptions()
	opt.Registerer = reg
	s, err := New(opt)
	require.NoError(t, err)

	start := time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC)
	_, err = s.Predict(context.Background(), PredictRequest{Start: start, End: start})
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales", "returns"}, nil))
	require.Error(t, s.FitFrame(context.Background(), salesFrame(t, 100), nil, nil))

	_, err = s.Predict(context.Background(), PredictRequest{Start: start, End: start})
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "demandcast_fits_total", KindOK))
	assert.Equal(t, 1.0, counterValue(t, reg, "demandcast_fits_total", KindInvalidInput))
	assert.Equal(t, 1.0, counterValue(t, reg, "demandcast_predicts_total", KindOK))
	assert.Equal(t, 1.0, counterValue(t, reg, "demandcast_predicts_total", KindInvalidState))

	families, err := reg.Gather()
	require.NoError(t, err)
	var fitted float64
	for _, fam := range families {
		if fam.GetName() == "demandcast_fitted_targets" {
			fitted = fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, fitted)
}

func TestConcurrentFitPredict(t *testing.T) {
	s := newService(t)
	frame := salesFrame(t, 100)
	require.NoError(t, s.FitFrame(context.Background(), frame, []string{"sales"}, nil))

	req := PredictRequest{
		Start: time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 17, 0, 0, 0, 0, time.UTC),
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.FitFrame(context.Background(), frame, []string{"sales", "returns"}, nil)
		}()
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Predict(context.Background(), req)
			if err == nil && len(res["sales"].Predictions) != 7 {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func BenchmarkPredict(b *testing.B) {
	s, err := New(nil)
	require.NoError(b, err)

	days := timedataset.GenerateDays(trainStart, 365)
	frame, err := timedataset.NewFrame(days)
	require.NoError(b, err)
	y := timedataset.GenerateConstY(len(days), 50).
		Add(timedataset.GenerateWeekdayY(days, [7]float64{4, 5, 3, 6, 10, -12, -16})).
		Add(timedataset.GenerateNoise(days, 1, 1))
	require.NoError(b, frame.AddColumn("sales", y))
	require.NoError(b, s.FitFrame(context.Background(), frame, []string{"sales"}, nil))

	req := PredictRequest{
		Start: days[len(days)-1].AddDate(0, 0, 1),
		End:   days[len(days)-1].AddDate(0, 0, 90),
	}
	for b.Loop() {
		if _, err := s.Predict(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

func TestPlot(t *testing.T) {
	s := newService(t)
	req := PredictRequest{
		Start: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	assert.ErrorIs(t, s.Plot(&buf, "sales", req), ErrInvalidState)

	require.NoError(t, s.FitFrame(context.Background(), salesFrame(t, 100), []string{"sales"}, nil))
	assert.ErrorIs(t, s.Plot(&buf, "revenue", req), ErrInvalidInput)

	require.NoError(t, s.Plot(&buf, "sales", req))
	assert.Contains(t, buf.String(), "Forecast Fit")
	assert.Contains(t, buf.String(), "2024-04-16")
}
