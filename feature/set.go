package feature

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Set tracks the data of each feature keyed by the string representation of the feature.
// Features keep their insertion order which defines the column order of the design matrix.
// All features share the same length m, shorter data is zero padded.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Rows returns the number of observations of each feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

func pad(data []float64, m int) []float64 {
	if len(data) >= m {
		return data
	}
	res := make([]float64, m)
	copy(res, data)
	return res
}

// Set adds or replaces the data of a feature
func (s *Set) Set(f Feature, data []float64) *Set {
	if len(data) > s.m {
		s.m = len(data)
		for k, v := range s.set {
			s.set[k] = pad(v, s.m)
		}
	}

	key := f.String()
	if _, exists := s.set[key]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[key] = pad(data, s.m)
	return s
}

// Get returns the data of a feature and whether it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Del removes a feature from the set
func (s *Set) Del(f Feature) *Set {
	key := f.String()
	if _, exists := s.set[key]; !exists {
		return s
	}
	delete(s.set, key)
	for i, label := range s.labels {
		if label.String() == key {
			s.labels = append(s.labels[:i], s.labels[i+1:]...)
			break
		}
	}
	if len(s.labels) == 0 {
		s.m = 0
		s.labels = nil
	}
	return s
}

// Update sets every feature of the other set onto this set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, label := range other.labels {
		s.Set(label, other.set[label.String()])
	}
	return s
}

// Labels returns the tracked features in insertion order
func (s *Set) Labels() *Labels {
	if s == nil {
		return nil
	}
	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	return NewLabels(labels)
}

// Matrix returns a matrix representation of the set to be used with matrix methods.
// The matrix has m rows representing the number of observations and n columns representing
// the number of features, prefixed by a column of ones if intercept is set.
func (s *Set) Matrix(intercept bool) *mat.Dense {
	if s == nil || len(s.labels) == 0 || s.m == 0 {
		return nil
	}

	m := s.m
	n := len(s.labels)
	if intercept {
		n += 1
	}

	obs := make([]float64, m*n)

	featNum := 0
	if intercept {
		for i := 0; i < m; i++ {
			obs[n*i] = 1.0
		}
		featNum += 1
	}

	for _, label := range s.labels {
		data := s.set[label.String()]
		for i := 0; i < m; i++ {
			obs[n*i+featNum] = data[i]
		}
		featNum += 1
	}
	return mat.NewDense(m, n, obs)
}

// RemoveZeroOnlyFeatures drops the features whose data is entirely zero since they cannot
// be fit.
func (s *Set) RemoveZeroOnlyFeatures() *Set {
	for _, label := range s.Labels().Labels() {
		data := s.set[label.String()]
		if len(data) == 0 || (floats.Min(data) == 0 && floats.Max(data) == 0) {
			s.Del(label)
		}
	}
	return s
}

// dependentTol is the norm of the part of a feature not explained by the features before it,
// relative to the largest feature norm, below which the feature is considered redundant.
const dependentTol = 1e-9

// RemoveDependentFeatures drops every feature that is a linear combination of the features
// before it, including a constant column when intercept is set, and returns the dropped
// features in order.
func (s *Set) RemoveDependentFeatures(intercept bool) []Feature {
	if s.Len() == 0 || s.m == 0 {
		return nil
	}

	var maxNorm float64
	for _, label := range s.labels {
		maxNorm = math.Max(maxNorm, floats.Norm(s.set[label.String()], 2))
	}

	// orthonormal basis of the kept columns
	var basis [][]float64
	if intercept {
		ones := make([]float64, s.m)
		floats.AddConst(1.0, ones)
		norm := floats.Norm(ones, 2)
		maxNorm = math.Max(maxNorm, norm)
		floats.Scale(1.0/norm, ones)
		basis = append(basis, ones)
	}

	var removed []Feature
	for _, label := range s.Labels().Labels() {
		r := slices.Clone(s.set[label.String()])
		// a second pass removes what rounding left of the projections
		for range 2 {
			for _, q := range basis {
				floats.AddScaled(r, -floats.Dot(q, r), q)
			}
		}
		norm := floats.Norm(r, 2)
		if norm <= dependentTol*maxNorm {
			s.Del(label)
			removed = append(removed, label)
			continue
		}
		floats.Scale(1.0/norm, r)
		basis = append(basis, r)
	}
	return removed
}

// Copy returns a deep copy of the set
func (s *Set) Copy() *Set {
	if s == nil {
		return nil
	}
	res := NewSet()
	res.m = s.m
	for _, label := range s.labels {
		data := make([]float64, len(s.set[label.String()]))
		copy(data, s.set[label.String()])
		res.set[label.String()] = data
		res.labels = append(res.labels, label)
	}
	return res
}
