// Package parquetsink persists result tables as Parquet files with one
// timestamp column, one completeness flag, and one optional double column
// per catalog location. Absent values map to Parquet nulls.
package parquetsink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
)

const (
	windowEndColumn = "window_end"
	completeColumn  = "window_complete"
)

// Writer implements pipeline.Sink for a single output file. Each write
// replaces any previous file for the same target atomically.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Parquet sink targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

func (w *Writer) Name() string { return "parquet" }

// WriteTable writes the whole table to a temp file and renames it over the
// target, so readers never observe a half-written file.
func (w *Writer) WriteTable(_ context.Context, table *domain.ResultTable) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".parquet-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeParquet(tmp, table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace output file: %w", err)
	}

	w.logger.Info("parquet file written", "path", w.path, "rows", len(table.Rows))
	return nil
}

func writeParquet(f *os.File, table *domain.ResultTable) error {
	writer := parquet.NewGenericWriter[map[string]any](f, tableSchema(table.Locations))

	rows := make([]map[string]any, len(table.Rows))
	for i, row := range table.Rows {
		record := map[string]any{
			windowEndColumn: row.WindowEnd.UnixMilli(),
			completeColumn:  row.Complete,
		}
		for name, v := range row.Values {
			// Absent stays out of the record and lands as a null.
			if v != nil {
				record[name] = *v
			}
		}
		rows[i] = record
	}

	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// tableSchema builds the file schema: required window_end timestamp and
// window_complete boolean, plus one optional double per location.
func tableSchema(locations []string) *parquet.Schema {
	group := parquet.Group{
		windowEndColumn: parquet.Timestamp(parquet.Millisecond),
		completeColumn:  parquet.Leaf(parquet.BooleanType),
	}
	for _, name := range locations {
		group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	return parquet.NewSchema("daily_precipitation", group)
}

// ReadTable loads a previously written file back into a result table.
// Column order in the file (alphabetical within a Parquet group) becomes
// the location order.
func ReadTable(path string) (*domain.ResultTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	fields := pf.Schema().Fields()
	columns := make([]string, len(fields))
	table := &domain.ResultTable{}
	for i, field := range fields {
		columns[i] = field.Name()
		if field.Name() != windowEndColumn && field.Name() != completeColumn {
			table.Locations = append(table.Locations, field.Name())
		}
	}

	for _, group := range pf.RowGroups() {
		rows := group.Rows()
		if err := readRows(rows, columns, table); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return table, nil
}

func readRows(rows parquet.Rows, columns []string, table *domain.ResultTable) error {
	buf := make([]parquet.Row, 64)
	for {
		n, err := rows.ReadRows(buf)
		for _, raw := range buf[:n] {
			row := domain.ExtractionRow{Values: make(map[string]*float64, len(columns)-2)}
			for _, value := range raw {
				name := columns[value.Column()]
				switch {
				case name == windowEndColumn:
					row.WindowEnd = time.UnixMilli(value.Int64()).UTC()
				case name == completeColumn:
					row.Complete = value.Boolean()
				case value.IsNull():
					row.Values[name] = nil
				default:
					v := value.Double()
					row.Values[name] = &v
				}
			}
			table.Rows = append(table.Rows, row)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read parquet rows: %w", err)
		}
	}
}
