package domain

import (
	"sort"
	"time"
)

// ExtractionRow holds the per-location daily totals for one accumulation
// window. Values maps location name to millimeters; a nil pointer records
// an absent value. Complete mirrors the DailyGrid flag so partial totals
// stay visibly distinguishable downstream.
type ExtractionRow struct {
	WindowEnd time.Time
	Values    map[string]*float64
	Complete  bool
}

// ResultTable is the sole durable output of the core: one row per window in
// the requested range, ascending by WindowEnd, with a stable column per
// catalog location. GeneratedAt is stamped from the injectable clock when
// the table is assembled.
type ResultTable struct {
	Locations   []string
	Rows        []ExtractionRow
	GeneratedAt time.Time
}

// NewResultTable builds an empty table for the given location set. Column
// order is location name order, sorted for stability across runs.
func NewResultTable(locations []Location, rowCap int) *ResultTable {
	names := make([]string, len(locations))
	for i, loc := range locations {
		names[i] = loc.Name
	}
	sort.Strings(names)

	return &ResultTable{
		Locations:   names,
		Rows:        make([]ExtractionRow, 0, rowCap),
		GeneratedAt: clock.Now().UTC(),
	}
}

// AbsentRow builds a fully-absent, incomplete row for a window whose grid
// processing failed. Rows are flagged rather than dropped so the table
// always carries one row per expected window.
func (t *ResultTable) AbsentRow(window TimeWindow) ExtractionRow {
	values := make(map[string]*float64, len(t.Locations))
	for _, name := range t.Locations {
		values[name] = nil
	}
	return ExtractionRow{WindowEnd: window.End, Values: values, Complete: false}
}

// Append adds a row. Callers append in window order; the table does no
// reordering of its own.
func (t *ResultTable) Append(row ExtractionRow) {
	t.Rows = append(t.Rows, row)
}
