// Package mat builds gonum dense matrices from row or column oriented slices.
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyMatrix = errors.New("matrix has no rows or columns")
	ErrColMismatch = errors.New("column size mismatch")
	ErrRowMismatch = errors.New("row size mismatch")
)

// uniformLen returns the shared length of every slice or the index of the first slice that
// differs from its predecessors.
func uniformLen(s [][]float64) (int, int) {
	if len(s) == 0 {
		return 0, -1
	}
	size := len(s[0])
	for i, v := range s {
		if len(v) != size {
			return size, i
		}
	}
	return size, -1
}

// NewDenseFromArray builds a matrix where each inner slice is a row.
func NewDenseFromArray(rows [][]float64) (*mat.Dense, error) {
	n, bad := uniformLen(rows)
	if bad >= 0 {
		return nil, fmt.Errorf("at row %d, %w", bad, ErrColMismatch)
	}
	m := len(rows)
	if m == 0 || n == 0 {
		return nil, fmt.Errorf("%d rows of %d columns, %w", m, n, ErrEmptyMatrix)
	}

	res := mat.NewDense(m, n, nil)
	for i, row := range rows {
		res.SetRow(i, row)
	}
	return res, nil
}

// NewDenseFromColumns builds a matrix where each inner slice is a column.
func NewDenseFromColumns(cols [][]float64) (*mat.Dense, error) {
	m, bad := uniformLen(cols)
	if bad >= 0 {
		return nil, fmt.Errorf("at column %d, %w", bad, ErrRowMismatch)
	}
	n := len(cols)
	if m == 0 || n == 0 {
		return nil, fmt.Errorf("%d columns of %d rows, %w", n, m, ErrEmptyMatrix)
	}

	res := mat.NewDense(m, n, nil)
	for j, col := range cols {
		res.SetCol(j, col)
	}
	return res, nil
}
