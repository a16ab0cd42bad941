package domain

import "fmt"

// Location is a named point in WGS-84 geographic coordinates at which
// grid-derived precipitation is reported. The full set is fixed, read-only
// reference data for the duration of a run.
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

// ExtractPoints reduces a daily-total grid to one scalar per location using
// nearest-cell lookup on the grid lattice. A nil pointer in the result means
// "absent": the location lies outside the grid's extent (or the grid has no
// extent at all). Absent is a structural condition distinct from a true
// rainfall of zero and must never be conflated with it.
//
// Locations are independent of each other; given the same grid and location
// set the output is always identical.
func ExtractPoints(grid *DailyGrid, locations []Location) (map[string]*float64, error) {
	if grid.CRS != GeographicCRS {
		return nil, fmt.Errorf("extract points: %w: %q", ErrUnsupportedCRS, grid.CRS)
	}

	values := make(map[string]*float64, len(locations))
	for _, loc := range locations {
		row, col, ok := grid.CellIndex(loc.Lat, loc.Lon)
		if !ok {
			values[loc.Name] = nil
			continue
		}
		v := grid.At(row, col)
		values[loc.Name] = &v
	}
	return values, nil
}
