// Package timedataset holds date indexed demand series and the tables they are drawn from.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrCannotInferFreq    = errors.New("cannot infer frequency from time slice")
)

// TimeDataset is a single series of observations, one per strictly increasing time point.
// NaN marks a missing observation.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset validates and copies the time points and observations into a dataset.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}
	if err := validateMonotonic(t); err != nil {
		return nil, err
	}
	return &TimeDataset{T: slices.Clone(t), Y: slices.Clone(y)}, nil
}

// validateMonotonic rejects repeated or out of order time points.
func validateMonotonic(t []time.Time) error {
	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return fmt.Errorf("%s does not follow %s at index %d, %w",
				t[i].Format(time.DateOnly), t[i-1].Format(time.DateOnly), i, ErrNonMontonic)
		}
	}
	return nil
}

func (td *TimeDataset) Copy() *TimeDataset {
	return &TimeDataset{T: slices.Clone(td.T), Y: slices.Clone(td.Y)}
}

// DropNan returns a new dataset keeping only the observed points.
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}
	res := &TimeDataset{
		T: make([]time.Time, 0, len(td.T)),
		Y: make([]float64, 0, len(td.Y)),
	}
	for i, y := range td.Y {
		if !math.IsNaN(y) {
			res.T = append(res.T, td.T[i])
			res.Y = append(res.Y, y)
		}
	}
	return res
}
