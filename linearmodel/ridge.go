package linearmodel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RidgeOptions represents input options to run the Ridge Regression
type RidgeOptions struct {
	// Lambda is the L2 penalty applied to every coefficient except the intercept
	Lambda float64

	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool
}

// Validate runs basic validation on Ridge options
func (r *RidgeOptions) Validate() (*RidgeOptions, error) {
	if r == nil {
		r = NewDefaultRidgeOptions()
	}
	if r.Lambda < 0 {
		return nil, fmt.Errorf("lambda of %f, %w", r.Lambda, ErrNegativeLambda)
	}
	return r, nil
}

// NewDefaultRidgeOptions returns a default set of Ridge Regression options
func NewDefaultRidgeOptions() *RidgeOptions {
	return &RidgeOptions{
		Lambda:       1.0,
		FitIntercept: true,
	}
}

// RidgeRegression computes L2 regularized least squares by solving the normal equations
// (XᵀX + λI)c = Xᵀy with a Cholesky factorization.
type RidgeRegression struct {
	solution
	opt *RidgeOptions
}

// NewRidgeRegression initializes a ridge regression model ready for fitting
func NewRidgeRegression(opt *RidgeOptions) (*RidgeRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &RidgeRegression{
		solution: solution{fitIntercept: opt.FitIntercept},
		opt:      opt,
	}, nil
}

// Fit the model according to the given training data
func (r *RidgeRegression) Fit(x, y mat.Matrix) error {
	if r.opt == nil {
		return ErrNoOptions
	}
	d, target, err := design(x, y, r.opt.FitIntercept)
	if err != nil {
		return err
	}
	_, n := d.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1.0, d.T())

	// the intercept is not penalized
	start := 0
	if r.opt.FitIntercept {
		start = 1
	}
	for i := start; i < n; i++ {
		xtx.SetSym(i, i, xtx.At(i, i)+r.opt.Lambda)
	}

	var xty mat.VecDense
	xty.MulVec(d.T(), target)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return fmt.Errorf("normal equations are not positive definite, %w", ErrSingularMatrix)
	}

	var c mat.VecDense
	if err := chol.SolveVecTo(&c, &xty); err != nil {
		return fmt.Errorf("unable to solve normal equations, %w", ErrSingularMatrix)
	}
	return r.set(c.RawVector().Data)
}
