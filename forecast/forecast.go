// Package forecast fits a single additive linear model of a univariate series. The series is
// decomposed into a piecewise linear trend, fourier seasonality, holiday effects and exogenous
// regressors whose weights are solved with a regularized least squares fit.
package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/forecast/options"
	dcmat "github.com/aouyang1/demandcast/mat"
	"github.com/aouyang1/demandcast/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrMissingFeature           = errors.New("feature missing from prediction inputs")
)

// Forecast represents a single forecast model of a time series. Options are resolved against the
// training data on fit so inference generates exactly the trained features.
type Forecast struct {
	opt      *options.Options
	resolved *options.Options
	scores   *Scores // score calculations after training

	// model coefficients
	fLabels *feature.Labels

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	coef      []float64
	intercept float64
	trained   bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	if _, err := opt.NewModel(); err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}

	return &Forecast{opt: opt}, nil
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, holidays and regressors. Regressors must be indexed by the training
// times and are required if the options name any.
func (f *Forecast) Fit(t []time.Time, y []float64, regressors *timedataset.Frame) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return err
	}
	if regressors != nil && regressors.Len() != len(trainingData.T) {
		return fmt.Errorf(
			"regressors have %d rows for %d observations, %w",
			regressors.Len(), len(trainingData.T), timedataset.ErrDatasetLenMismatch,
		)
	}

	// remove any NaNs from training set
	cleaned := trainingData.DropNan()
	if len(cleaned.T) <= 1 {
		return ErrInsufficientTrainingData
	}

	trainingRegressors := regressors
	if regressors != nil && len(cleaned.T) != len(trainingData.T) {
		trainingRegressors, err = regressors.Rows(cleaned.T)
		if err != nil {
			return err
		}
	}

	f.trainStartTime = cleaned.T[0]
	f.trainEndTime = cleaned.T[len(cleaned.T)-1]

	resolved, err := f.opt.Resolve(cleaned.T, trainingRegressors)
	if err != nil {
		return err
	}

	x, err := resolved.GenerateFeatures(cleaned.T, f.trainStartTime, f.trainEndTime, trainingRegressors)
	if err != nil {
		return err
	}
	nFeat := x.Len()
	x.RemoveZeroOnlyFeatures()
	if removed := nFeat - x.Len(); removed > 0 {
		slog.Warn("removed features without any training signal", "removed", removed)
	}
	// a redundant column makes the least squares problem singular
	if dependent := x.RemoveDependentFeatures(true); len(dependent) > 0 {
		slog.Warn("removed features that are linear combinations of other features", "features", feature.NewLabels(dependent).Names())
	}

	// fit on a unit scale so the regularization strength does not depend on the magnitude of y
	scale := unitScale(cleaned.Y)
	scaledY := make([]float64, len(cleaned.Y))
	floats.ScaleTo(scaledY, 1.0/scale, cleaned.Y)

	intercept, coef, err := fitLinear(resolved, x, scaledY)
	if err != nil {
		return err
	}
	f.intercept = intercept * scale
	floats.Scale(scale, coef)
	f.coef = coef
	f.fLabels = x.Labels()
	f.resolved = resolved
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T, regressors)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(trainingData.T))
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

// unitScale is the largest absolute value of y or 1 when y is all zeros.
func unitScale(y []float64) float64 {
	scale := math.Max(floats.Max(y), -floats.Min(y))
	if scale == 0 {
		return 1.0
	}
	return scale
}

func fitLinear(opt *options.Options, x *feature.Set, y []float64) (float64, []float64, error) {
	// only a level to fit
	if x.Len() == 0 {
		return stat.Mean(y, nil), nil, nil
	}

	model, err := opt.NewModel()
	if err != nil {
		return 0, nil, err
	}
	if err := model.Fit(x.Matrix(false), mat.NewDense(len(y), 1, y)); err != nil {
		return 0, nil, fmt.Errorf("unable to fit linear model, %w", err)
	}
	return model.Intercept(), model.Coef(), nil
}

// Predict takes a slice of times and produces the predicted value for those times given a
// pre-trained model. Regressors must be indexed by the prediction times.
func (f *Forecast) Predict(t []time.Time, regressors *timedataset.Frame) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}

	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x, err := f.resolved.GenerateFeatures(t, f.trainStartTime, f.trainEndTime, regressors)
	if err != nil {
		return nil, Components{}, err
	}

	labels := f.fLabels.Labels()
	cols := make([][]float64, 0, len(labels))
	for _, label := range labels {
		data, exists := x.Get(label)
		if !exists {
			return nil, Components{}, fmt.Errorf("%s, %w", label, ErrMissingFeature)
		}
		cols = append(cols, data)
	}

	comp := newComponents(len(t), f.intercept)
	for _, ft := range []feature.FeatureType{
		feature.FeatureTypeGrowth,
		feature.FeatureTypeChangepoint,
		feature.FeatureTypeSeasonality,
		feature.FeatureTypeEvent,
		feature.FeatureTypeRegressor,
	} {
		dst := comp.of(ft)
		for _, i := range f.fLabels.OfType(ft) {
			floats.AddScaled(dst, f.coef[i], cols[i])
		}
	}

	res, err := f.runInference(cols, len(t))
	if err != nil {
		return nil, Components{}, err
	}
	return res, comp, nil
}

func (f *Forecast) runInference(cols [][]float64, m int) ([]float64, error) {
	res := make([]float64, m)
	floats.AddConst(f.intercept, res)
	if len(cols) == 0 || m == 0 {
		return res, nil
	}

	featMx, err := dcmat.NewDenseFromColumns(cols)
	if err != nil {
		return nil, err
	}

	var yhat mat.VecDense
	yhat.MulVec(featMx, mat.NewVecDense(len(f.coef), f.coef))
	floats.Add(res, yhat.RawVector().Data)
	return res, nil
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil || f.fLabels == nil {
		return nil
	}

	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	names := f.fLabels.Names()
	if len(names) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64, len(names))
	for i, name := range names {
		coef[name] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	return f.intercept
}

// Options returns the options resolved against the training data
func (f *Forecast) Options() *options.Options {
	if f == nil {
		return nil
	}
	if f.resolved != nil {
		return f.resolved
	}
	return f.opt
}

// TrainingWindow returns the first and last training time with a non NaN observation
func (f *Forecast) TrainingWindow() (time.Time, time.Time) {
	if f == nil {
		return time.Time{}, time.Time{}
	}
	return f.trainStartTime, f.trainEndTime
}

// Model returns the summary of the forecast model composing of the resolved forecast options,
// intercept, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	labels := f.fLabels.Labels()
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	w := Weights{
		Intercept: f.intercept,
		Coef:      fws,
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.resolved,
		Weights:        w,
		Scores:         f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ... omitting weights that round to zero
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}
	if len(f.coef) == 0 {
		return "", ErrNoModelCoefficients
	}

	var eq strings.Builder
	fmt.Fprintf(&eq, "y ~ %.2f", f.intercept)
	for i, feat := range f.fLabels.Labels() {
		if math.Abs(f.coef[i]) < 0.005 {
			continue
		}
		fmt.Fprintf(&eq, "%+.2f*%s", f.coef[i], feat)
	}
	return eq.String(), nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil {
		return Scores{}
	}
	if f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data. NaN observations have a NaN residual.
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrainComponents returns the additive decomposition of the fit over the training times
func (f *Forecast) TrainComponents() Components {
	if f == nil {
		return Components{}
	}
	return f.trainComponents.Copy()
}
