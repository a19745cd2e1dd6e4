package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularTol is the smallest ratio of a diagonal entry of R to the largest one before the
// design matrix is considered rank deficient.
const singularTol = 1e-10

// OLSOptions represents input options to run the OLS Regression
type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool
}

// Validate runs basic validation on OLS options
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}
	return o, nil
}

// NewDefaultOLSOptions returns a default set of OLS Regression options
func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	solution
	opt *OLSOptions
}

// NewOLSRegression initializes an ordinary least squares model ready for fitting
func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		solution: solution{fitIntercept: opt.FitIntercept},
		opt:      opt,
	}, nil
}

// Fit the model according to the given training data
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	d, target, err := design(x, y, o.opt.FitIntercept)
	if err != nil {
		return err
	}
	m, n := d.Dims()
	if m < n {
		return fmt.Errorf("%d observations for %d features, %w", m, n, ErrInsufficientObservations)
	}

	var qr mat.QR
	qr.Factorize(d)

	var r mat.Dense
	qr.RTo(&r)
	var maxDiag float64
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	for i := 0; i < n; i++ {
		if math.Abs(r.At(i, i)) <= singularTol*maxDiag {
			return fmt.Errorf("feature %d is linearly dependent, %w", i, ErrSingularMatrix)
		}
	}

	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, target); err != nil {
		return fmt.Errorf("unable to solve least squares, %w", ErrSingularMatrix)
	}
	return o.set(c.RawVector().Data)
}
