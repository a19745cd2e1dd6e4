package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNonFinite       = errors.New("column contains non-finite values")
)

// Frame is a date indexed table of named numeric columns. The index is strictly increasing
// and every column has the same length as the index. Gaps in the index are allowed.
type Frame struct {
	T       TimeSlice
	names   []string
	columns map[string][]float64
}

// NewFrame creates a frame with no columns over the provided index.
func NewFrame(t []time.Time) (*Frame, error) {
	if len(t) == 0 {
		return nil, ErrNoTrainingData
	}
	if err := validateMonotonic(t); err != nil {
		return nil, err
	}
	tSeries := make(TimeSlice, len(t))
	copy(tSeries, t)
	return &Frame{
		T:       tSeries,
		columns: make(map[string][]float64),
	}, nil
}

// AddColumn appends a named column to the frame. The values are copied.
func (f *Frame) AddColumn(name string, vals []float64) error {
	if len(vals) != len(f.T) {
		return fmt.Errorf(
			"column %q has length of %d, but index has a length of %d, %w",
			name, len(vals), len(f.T), ErrDatasetLenMismatch,
		)
	}
	if _, exists := f.columns[name]; exists {
		return fmt.Errorf("%q, %w", name, ErrDuplicateColumn)
	}
	col := make([]float64, len(vals))
	copy(col, vals)
	f.names = append(f.names, name)
	f.columns[name] = col
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.T)
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)
	return names
}

// Has reports whether the frame holds the named column.
func (f *Frame) Has(name string) bool {
	_, exists := f.columns[name]
	return exists
}

// Column returns the values of a named column. The returned slice must not be modified.
func (f *Frame) Column(name string) ([]float64, error) {
	col, exists := f.columns[name]
	if !exists {
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownColumn)
	}
	return col, nil
}

// Select returns a new frame with the named columns in the requested order. Columns must be
// present and finite.
func (f *Frame) Select(names []string) (*Frame, error) {
	res, err := NewFrame(f.T)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%q at row %d, %w", name, i, ErrNonFinite)
			}
		}
		if err := res.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Dataset returns the univariate series of a column with NaN observations dropped.
func (f *Frame) Dataset(name string) (*TimeDataset, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	td := (&TimeDataset{T: f.T, Y: col}).DropNan()
	if len(td.Y) == 0 {
		return nil, fmt.Errorf("%q has only missing values, %w", name, ErrNoTrainingData)
	}
	return td, nil
}

// Rows returns a copy of the frame restricted to the rows whose index is in t. Every entry of t
// must exist in the frame index.
func (f *Frame) Rows(t []time.Time) (*Frame, error) {
	pos := make(map[int64]int, len(f.T))
	for i, ct := range f.T {
		pos[ct.UnixNano()] = i
	}
	idx := make([]int, len(t))
	for i, ct := range t {
		p, exists := pos[ct.UnixNano()]
		if !exists {
			return nil, fmt.Errorf("time %s not in index, %w", ct.Format(time.DateOnly), ErrDatasetLenMismatch)
		}
		idx[i] = p
	}

	res, err := NewFrame(t)
	if err != nil {
		return nil, err
	}
	for _, name := range f.names {
		src := f.columns[name]
		col := make([]float64, len(idx))
		for i, p := range idx {
			col[i] = src[p]
		}
		if err := res.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return res, nil
}
