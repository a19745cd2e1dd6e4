// Package linearmodel is a collection of linear regression fitting implementations used by the
// forecast models.
package linearmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoOptions                = errors.New("no initialized model options")
	ErrTargetLenMismatch        = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix         = errors.New("no training matrix")
	ErrNoTargetMatrix           = errors.New("no target matrix")
	ErrNoDesignMatrix           = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch       = errors.New("number of features does not match number of model coefficients")
	ErrInsufficientObservations = errors.New("fewer observations than features")
	ErrSingularMatrix           = errors.New("design matrix is singular")
	ErrNonFiniteSolution        = errors.New("solution has non-finite coefficients")
	ErrNegativeLambda           = errors.New("regularization strength must be non-negative")
)

type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// solution holds fitted weights and implements inference for every model in this package.
type solution struct {
	fitIntercept bool
	intercept    float64
	coef         []float64
}

// set splits the solved weights into the intercept and feature coefficients after checking
// that every weight is finite.
func (s *solution) set(c []float64) error {
	for i, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coefficient %d is %f, %w", i, v, ErrNonFiniteSolution)
		}
	}
	s.intercept = 0.0
	s.coef = c
	if s.fitIntercept {
		s.intercept = c[0]
		s.coef = c[1:]
	}
	return nil
}

// Predict evaluates the fitted weights on each row of x
func (s *solution) Predict(x mat.Matrix) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != len(s.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(s.coef), ErrFeatureLenMismatch)
	}

	if m == 0 {
		return []float64{}, nil
	}
	res := mat.NewVecDense(m, nil)
	if n > 0 {
		res.MulVec(x, mat.NewVecDense(n, s.coef))
	}
	out := res.RawVector().Data
	for i := range out {
		out[i] += s.intercept
	}
	return out, nil
}

// Score computes the coefficient of determination of the prediction
func (s *solution) Score(x, y mat.Matrix) (float64, error) {
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := s.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil), nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (s *solution) Intercept() float64 {
	return s.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (s *solution) Coef() []float64 {
	c := make([]float64, len(s.coef))
	copy(c, s.coef)
	return c
}

// design validates the training data and returns the design matrix, prefixed with a column of
// ones when an intercept is fit, along with the target vector.
func design(x, y mat.Matrix, fitIntercept bool) (*mat.Dense, *mat.VecDense, error) {
	if x == nil {
		return nil, nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, nil, ErrNoTargetMatrix
	}
	m, n := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return nil, nil, fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	offset := 0
	if fitIntercept {
		offset = 1
	}
	d := mat.NewDense(m, n+offset, nil)
	for i := 0; i < m; i++ {
		if fitIntercept {
			d.Set(i, 0, 1.0)
		}
		for j := 0; j < n; j++ {
			d.Set(i, j+offset, x.At(i, j))
		}
	}
	return d, mat.NewVecDense(m, mat.Col(nil, 0, y)), nil
}
