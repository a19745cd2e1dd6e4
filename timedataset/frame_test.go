package timedataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameIndex() []time.Time {
	return []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewFrame(t *testing.T) {
	testData := map[string]struct {
		t   []time.Time
		err error
	}{
		"empty index": {
			err: ErrNoTrainingData,
		},
		"repeated date": {
			t: []time.Time{
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			err: ErrNonMontonic,
		},
		"decreasing date": {
			t: []time.Time{
				time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			err: ErrNonMontonic,
		},
		"gaps allowed": {
			t: frameIndex(),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := NewFrame(td.t)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(td.t), f.Len())
		})
	}
}

func TestFrameColumns(t *testing.T) {
	f, err := NewFrame(frameIndex())
	require.NoError(t, err)

	require.NoError(t, f.AddColumn("sales", []float64{1, 2, 3}))
	require.NoError(t, f.AddColumn("promo", []float64{0, 1, 0}))

	assert.ErrorIs(t, f.AddColumn("sales", []float64{1, 2, 3}), ErrDuplicateColumn)
	assert.ErrorIs(t, f.AddColumn("short", []float64{1}), ErrDatasetLenMismatch)

	assert.Equal(t, []string{"sales", "promo"}, f.Names())
	assert.True(t, f.Has("promo"))
	assert.False(t, f.Has("price"))

	col, err := f.Column("promo")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, col)

	_, err = f.Column("price")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFrameSelect(t *testing.T) {
	f, err := NewFrame(frameIndex())
	require.NoError(t, err)
	require.NoError(t, f.AddColumn("sales", []float64{1, 2, 3}))
	require.NoError(t, f.AddColumn("promo", []float64{0, 1, 0}))
	require.NoError(t, f.AddColumn("price", []float64{1, math.NaN(), 1}))

	testData := map[string]struct {
		names    []string
		expected []string
		err      error
	}{
		"reordered": {
			names:    []string{"promo", "sales"},
			expected: []string{"promo", "sales"},
		},
		"missing column": {
			names: []string{"promo", "weather"},
			err:   ErrUnknownColumn,
		},
		"non finite column": {
			names: []string{"price"},
			err:   ErrNonFinite,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := f.Select(td.names)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, res.Names())
			assert.Equal(t, f.T, res.T)
		})
	}
}

func TestFrameDataset(t *testing.T) {
	f, err := NewFrame(frameIndex())
	require.NoError(t, err)
	require.NoError(t, f.AddColumn("sales", []float64{1, math.NaN(), 3}))
	require.NoError(t, f.AddColumn("empty", []float64{math.NaN(), math.NaN(), math.NaN()}))

	ds, err := f.Dataset("sales")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}, ds.T)
	assert.Equal(t, []float64{1, 3}, ds.Y)

	_, err = f.Dataset("empty")
	assert.ErrorIs(t, err, ErrNoTrainingData)

	_, err = f.Dataset("price")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFrameRows(t *testing.T) {
	f, err := NewFrame(frameIndex())
	require.NoError(t, err)
	require.NoError(t, f.AddColumn("sales", []float64{1, 2, 3}))

	rows, err := f.Rows([]time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	col, err := rows.Column("sales")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, col)

	_, err = f.Rows([]time.Time{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, ErrDatasetLenMismatch)
}
