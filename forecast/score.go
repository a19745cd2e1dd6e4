package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores tracks how well predictions match the observed demand. Days with a missing
// observation are left out of every score.
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// NewScores calculates the fit scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	p, a, err := observed(predicted, actual)
	if err != nil {
		return nil, err
	}
	return &Scores{
		MSE:  mse(p, a),
		MAPE: mape(p, a),
		R2:   rSquared(p, a),
	}, nil
}

// MSE computes the mean squared error over the observed points. 0 is a perfect match.
func MSE(predicted, actual []float64) (float64, error) {
	p, a, err := observed(predicted, actual)
	if err != nil {
		return 0, err
	}
	return mse(p, a), nil
}

// MAPE calculates the mean absolute percent error over the observed points. Days without
// demand have no defined percent error and are skipped. 0 is a perfect match.
func MAPE(predicted, actual []float64) (float64, error) {
	p, a, err := observed(predicted, actual)
	if err != nil {
		return 0, err
	}
	return mape(p, a), nil
}

// RSquared computes the coefficient of determination where 1.0 means a perfect fit and 0 is no
// better than the mean demand.
func RSquared(predicted, actual []float64) (float64, error) {
	p, a, err := observed(predicted, actual)
	if err != nil {
		return 0, err
	}
	return rSquared(p, a), nil
}

// observed returns the pairs where both the prediction and the observation are known.
func observed(predicted, actual []float64) ([]float64, []float64, error) {
	if len(predicted) != len(actual) {
		return nil, nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	p := make([]float64, 0, len(predicted))
	a := make([]float64, 0, len(actual))
	for i := range actual {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		p = append(p, predicted[i])
		a = append(a, actual[i])
	}
	return p, a, nil
}

func mse(p, a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - p[i]
		sum += d * d
	}
	return sum / float64(len(a))
}

func mape(p, a []float64) float64 {
	var sum float64
	var n int
	for i := range a {
		if a[i] == 0 {
			continue
		}
		sum += math.Abs((a[i] - p[i]) / a[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func rSquared(p, a []float64) float64 {
	r2 := stat.RSquaredFrom(p, a, nil)
	// constant observations leave r squared undefined
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 1.0
	}
	return r2
}
