// Package tabular decodes parquet tables into date indexed frames.
package tabular

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/demandcast/timedataset"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/goccy/go-json"
)

const (
	// PandasIndexColumn is the column name pandas uses for an unnamed index
	PandasIndexColumn = "__index_level_0__"

	pandasMetadataKey = "pandas"
)

var (
	ErrEmptyTable     = errors.New("table is empty")
	ErrInvalidParquet = errors.New("invalid parquet data")
	ErrNoIndex        = errors.New("table has no index column")
	ErrNotDateIndex   = errors.New("index column is not date typed")
	ErrNullIndex      = errors.New("index column contains null values")
)

// Options configures table decoding
type Options struct {
	// IndexColumn names the date column used as the index when the table carries no pandas
	// index metadata
	IndexColumn string
}

type pandasMetadata struct {
	IndexColumns []json.RawMessage `json:"index_columns"`
}

// Decode reads a parquet table and returns a frame indexed by the table's date index. The index is
// taken from the pandas metadata when present, then the configured index column, then the
// pandas default index column name. Numeric and boolean columns become frame columns with nulls
// as NaN. Other columns are skipped.
func Decode(ctx context.Context, data []byte, opt *Options) (*timedataset.Frame, error) {
	if len(data) == 0 {
		return nil, ErrEmptyTable
	}
	if opt == nil {
		opt = &Options{}
	}

	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to open parquet reader, %w: %w", ErrInvalidParquet, err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("unable to create arrow reader, %w: %w", ErrInvalidParquet, err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to read table, %w: %w", ErrInvalidParquet, err)
	}
	defer tbl.Release()

	if tbl.NumRows() == 0 {
		return nil, ErrEmptyTable
	}

	var pandasMeta *string
	if kv := rdr.MetaData().KeyValueMetadata(); kv != nil {
		pandasMeta = kv.FindValue(pandasMetadataKey)
	}
	if pandasMeta == nil {
		md := tbl.Schema().Metadata()
		if idx := md.FindKey(pandasMetadataKey); idx >= 0 {
			pandasMeta = &md.Values()[idx]
		}
	}

	indexName, err := indexColumn(tbl.Schema(), pandasMeta, opt.IndexColumn)
	if err != nil {
		return nil, err
	}
	return toFrame(tbl, indexName)
}

// indexColumn picks the name of the date index column
func indexColumn(schema *arrow.Schema, pandasMeta *string, configured string) (string, error) {
	var candidates []string
	if pandasMeta != nil {
		var meta pandasMetadata
		if err := json.Unmarshal([]byte(*pandasMeta), &meta); err != nil {
			slog.Warn("unable to decode pandas metadata", "error", err.Error())
		}
		for _, raw := range meta.IndexColumns {
			// range indexes are described by an object and have no stored column
			var name string
			if err := json.Unmarshal(raw, &name); err == nil {
				candidates = append(candidates, name)
			}
		}
	}
	if configured != "" {
		candidates = append(candidates, configured)
	}
	candidates = append(candidates, PandasIndexColumn)

	for _, name := range candidates {
		if len(schema.FieldIndices(name)) > 0 {
			return name, nil
		}
	}
	return "", fmt.Errorf("tried %v, %w", candidates, ErrNoIndex)
}

func toFrame(tbl arrow.Table, indexName string) (*timedataset.Frame, error) {
	schema := tbl.Schema()
	idxPos := schema.FieldIndices(indexName)[0]

	t, err := dateColumn(tbl.Column(idxPos))
	if err != nil {
		return nil, fmt.Errorf("index %q, %w", indexName, err)
	}
	frame, err := timedataset.NewFrame(t)
	if err != nil {
		return nil, fmt.Errorf("index %q, %w", indexName, err)
	}

	for i := 0; i < int(tbl.NumCols()); i++ {
		if i == idxPos {
			continue
		}
		col := tbl.Column(i)
		vals, ok := numericColumn(col)
		if !ok {
			slog.Debug("skipping non numeric column", "name", col.Name(), "type", col.DataType().String())
			continue
		}
		if err := frame.AddColumn(col.Name(), vals); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// dateColumn converts a timestamp or date column into midnight UTC of each calendar day
func dateColumn(col *arrow.Column) ([]time.Time, error) {
	t := make([]time.Time, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		if chunk.NullN() > 0 {
			return nil, ErrNullIndex
		}
		switch arr := chunk.(type) {
		case *array.Timestamp:
			unit := arr.DataType().(*arrow.TimestampType).Unit
			for i := 0; i < arr.Len(); i++ {
				t = append(t, timedataset.TruncateDay(arr.Value(i).ToTime(unit)))
			}
		case *array.Date32:
			for i := 0; i < arr.Len(); i++ {
				t = append(t, timedataset.TruncateDay(arr.Value(i).ToTime()))
			}
		case *array.Date64:
			for i := 0; i < arr.Len(); i++ {
				t = append(t, timedataset.TruncateDay(arr.Value(i).ToTime()))
			}
		default:
			return nil, fmt.Errorf("type %s, %w", chunk.DataType().String(), ErrNotDateIndex)
		}
	}
	return t, nil
}

// numericColumn converts a numeric or boolean column to float64 with nulls as NaN
func numericColumn(col *arrow.Column) ([]float64, bool) {
	vals := make([]float64, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		var value func(i int) float64
		switch arr := chunk.(type) {
		case *array.Float64:
			value = func(i int) float64 { return arr.Value(i) }
		case *array.Float32:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Int64:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Int32:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Int16:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Int8:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Uint64:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Uint32:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Uint16:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Uint8:
			value = func(i int) float64 { return float64(arr.Value(i)) }
		case *array.Boolean:
			value = func(i int) float64 {
				if arr.Value(i) {
					return 1
				}
				return 0
			}
		default:
			return nil, false
		}
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				vals = append(vals, math.NaN())
				continue
			}
			vals = append(vals, value(i))
		}
	}
	return vals, true
}
