// Package stats holds the robust statistics used to clean training residuals and to derive the
// uncertainty series of a forecast.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aouyang1/demandcast/linearmodel"
	dcmat "github.com/aouyang1/demandcast/mat"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrMinimumFeatures    = errors.New("need at least 2 features to compute VIF")
	ErrFeatureLenMismatch = errors.New("some feature length is not consistent")
	ErrFeatureLen         = errors.New("must have at least 2 points per feature")
	ErrInvalidWindow      = errors.New("window must be at least 2 points")
)

// DetectOutliers returns the indices of values outside the Tukey fence built from the lower and
// upper percentiles of y. NaN values are ignored and never reported.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		yCopy = append(yCopy, v)
	}
	if len(yCopy) == 0 {
		return nil
	}
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy))*upperPerc)) - 1
	lowerIdx = min(max(lowerIdx, 0), len(yCopy)-1)
	upperIdx = min(max(upperIdx, lowerIdx), len(yCopy)-1)

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// RollingStd computes the sample standard deviation of every full window of y. The result has
// len(y)-window+1 points where point i covers y[i:i+window]. NaN values inside a window are
// skipped and a window with fewer than 2 valid points is NaN.
func RollingStd(y []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("window of %d, %w", window, ErrInvalidWindow)
	}
	if len(y) < window {
		return nil, fmt.Errorf("%d points for a window of %d, %w", len(y), window, ErrFeatureLen)
	}

	res := make([]float64, len(y)-window+1)
	buf := make([]float64, 0, window)
	for i := range res {
		buf = buf[:0]
		for _, v := range y[i : i+window] {
			if !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		if len(buf) < 2 {
			res[i] = math.NaN()
			continue
		}
		res[i] = stat.StdDev(buf, nil)
	}
	return res, nil
}

// VarianceInflationFactor regresses each feature on the others and returns 1/(1-R²) per
// feature. Large values flag features that are nearly a linear combination of the rest.
func VarianceInflationFactor(names []string, features [][]float64) (map[string]float64, error) {
	n := len(features)
	if n < 2 {
		return nil, ErrMinimumFeatures
	}
	if len(names) != n {
		return nil, fmt.Errorf("%d names for %d features, %w", len(names), n, ErrFeatureLenMismatch)
	}
	m := len(features[0])
	for _, feature := range features {
		if len(feature) < 2 {
			return nil, ErrFeatureLen
		}
		if len(feature) != m {
			return nil, ErrFeatureLenMismatch
		}
	}

	vif := make(map[string]float64, n)
	others := make([][]float64, 0, n-1)
	for i, target := range features {
		others = others[:0]
		for j, other := range features {
			if j != i {
				others = append(others, other)
			}
		}
		x, err := dcmat.NewDenseFromColumns(others)
		if err != nil {
			return nil, err
		}

		model, err := linearmodel.NewOLSRegression(linearmodel.NewDefaultOLSOptions())
		if err != nil {
			return nil, err
		}
		if err := model.Fit(x, mat.NewDense(m, 1, target)); err != nil {
			// an exactly collinear set of features
			vif[names[i]] = math.Inf(1)
			continue
		}
		predicted, err := model.Predict(x)
		if err != nil {
			return nil, err
		}

		r2 := stat.RSquaredFrom(predicted, target, nil)
		if math.IsNaN(r2) || r2 >= 1 {
			vif[names[i]] = math.Inf(1)
			continue
		}
		vif[names[i]] = 1.0 / (1.0 - r2)
	}
	return vif, nil
}
