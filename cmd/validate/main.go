// Command validate performs integrity checks on a produced daily
// precipitation file: column alignment against the location catalog, window
// ordering and anchoring, value sanity ranges, and completeness accounting.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -parquet output/capitals_br_daily_prec.parquet \
//	  -catalog data/capitals_br.geojson
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/precip-data-etl/internal/adapter/parquetsink"
	"github.com/couchcryptid/precip-data-etl/internal/catalog"
	"github.com/couchcryptid/precip-data-etl/internal/domain"
)

// maxDailyMM is a sanity ceiling for a 24 h accumulation. The Brazilian
// record daily total is under 700 mm.
const maxDailyMM = 1000.0

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	parquetPath := flag.String("parquet", "", "path to the daily precipitation parquet file")
	catalogPath := flag.String("catalog", "", "path to the location catalog GeoJSON")
	flag.Parse()

	if *parquetPath == "" || *catalogPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*parquetPath, *catalogPath); code != 0 {
		os.Exit(code)
	}
}

func run(parquetPath, catalogPath string) int {
	fmt.Println("=== Daily Precipitation Integrity Validation ===")
	fmt.Println()

	table, err := parquetsink.ReadTable(parquetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read parquet: %v\n", err)
		return 1
	}

	locations, err := catalog.Load(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateColumnAlignment(table, locations),
		validateWindowOrdering(table),
		validateValueRanges(table),
		validateCompleteness(table),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d windows, %d locations\n", len(table.Rows), len(table.Locations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Column Alignment ──
// Every catalog location must have a column and vice versa.

func validateColumnAlignment(table *domain.ResultTable, locations []domain.Location) *phase {
	p := &phase{name: "Phase 1: Column Alignment (catalog)"}

	catalogNames := make(map[string]bool, len(locations))
	for _, loc := range locations {
		catalogNames[loc.Name] = true
	}
	tableNames := make(map[string]bool, len(table.Locations))
	for _, name := range table.Locations {
		tableNames[name] = true
	}

	for name := range catalogNames {
		if !tableNames[name] {
			p.errorf("catalog location %q has no column in the file", name)
		}
	}
	for name := range tableNames {
		if !catalogNames[name] {
			p.errorf("column %q has no catalog location", name)
		}
	}

	if !sort.StringsAreSorted(table.Locations) {
		p.errorf("columns are not in sorted order: %v", table.Locations)
	}

	for i, row := range table.Rows {
		if len(row.Values) != len(table.Locations) {
			p.errorf("row %d: %d values for %d columns", i, len(row.Values), len(table.Locations))
		}
		for name := range row.Values {
			if !tableNames[name] {
				p.errorf("row %d: value for unknown column %q", i, name)
			}
		}
	}
	return p
}

// ── Phase 2: Window Ordering ──
// Windows must end at 12:00 UTC, be unique, and step by exactly 24 hours.

func validateWindowOrdering(table *domain.ResultTable) *phase {
	p := &phase{name: "Phase 2: Window Ordering (12Z anchoring)"}

	for i, row := range table.Rows {
		end := row.WindowEnd.UTC()
		if end.Hour() != 12 || end.Minute() != 0 || end.Second() != 0 || end.Nanosecond() != 0 {
			p.errorf("row %d: window end %s is not anchored at 12:00:00 UTC", i, end.Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		prev := table.Rows[i-1].WindowEnd.UTC()
		if !end.After(prev) {
			p.errorf("row %d: window end %s is not after previous %s", i, end.Format(time.RFC3339), prev.Format(time.RFC3339))
		} else if end.Sub(prev) != 24*time.Hour {
			p.errorf("row %d: gap from previous window is %s, want 24h", i, end.Sub(prev))
		}
	}
	return p
}

// ── Phase 3: Value Ranges ──

func validateValueRanges(table *domain.ResultTable) *phase {
	p := &phase{name: "Phase 3: Value Ranges (mm/24h)"}

	for i, row := range table.Rows {
		for name, v := range row.Values {
			if v == nil {
				continue
			}
			switch {
			case math.IsNaN(*v) || math.IsInf(*v, 0):
				p.errorf("row %d %q: value is not finite", i, name)
			case *v < 0:
				p.errorf("row %d %q: negative accumulation %g", i, name, *v)
			case *v > maxDailyMM:
				p.errorf("row %d %q: accumulation %g exceeds %g mm sanity ceiling", i, name, *v, maxDailyMM)
			}
		}
	}
	return p
}

// ── Phase 4: Completeness ──
// A fully-absent row must be flagged incomplete; complete rows must carry a
// value for every column.

func validateCompleteness(table *domain.ResultTable) *phase {
	p := &phase{name: "Phase 4: Completeness Accounting"}

	var incomplete int
	for i, row := range table.Rows {
		absent := 0
		for _, v := range row.Values {
			if v == nil {
				absent++
			}
		}
		if !row.Complete {
			incomplete++
			continue
		}
		if absent == len(row.Values) && len(row.Values) > 0 {
			p.errorf("row %d: marked complete but every value is absent", i)
		}
	}
	if incomplete > 0 {
		fmt.Printf("  Note: %d window(s) flagged incomplete (degraded source hours)\n", incomplete)
	}
	return p
}
