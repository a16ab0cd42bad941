package domain

import (
	"math"
	"time"
)

// GeographicCRS is the only coordinate reference system the pipeline
// understands: plain WGS-84 latitude/longitude with longitudes in
// [-180, 180). Source adapters are expected to normalize into it.
const GeographicCRS = "EPSG:4326"

// Grid is a regular 2-D lattice of precipitation values in millimeters.
// Values are stored row-major with latitude ascending (south to north)
// and longitude ascending (west to east). OriginLat/OriginLon are the
// coordinates of the center of the southwest corner cell.
type Grid struct {
	CRS       string
	OriginLat float64
	OriginLon float64
	CellSize  float64 // degrees, uniform in both axes
	Rows      int     // latitude axis
	Cols      int     // longitude axis
	Values    []float64
}

// HourlyGrid is the precipitation accumulated over a single UTC hour,
// as produced by a GridSource.
type HourlyGrid struct {
	Grid
	Hour time.Time
}

// DailyGrid is the per-cell sum of the hourly grids inside one
// accumulation window. Complete is true only when all 24 required hours
// contributed.
type DailyGrid struct {
	Grid
	Window       TimeWindow
	Complete     bool
	MissingHours []time.Time
}

// At returns the value at (row, col). Row 0 is the southernmost row.
func (g *Grid) At(row, col int) float64 {
	return g.Values[row*g.Cols+col]
}

// SameShape reports whether two grids share CRS, extent, and resolution,
// which is the precondition for cell-wise arithmetic between them.
func (g *Grid) SameShape(o *Grid) bool {
	return g.CRS == o.CRS &&
		g.Rows == o.Rows &&
		g.Cols == o.Cols &&
		closeEnough(g.OriginLat, o.OriginLat) &&
		closeEnough(g.OriginLon, o.OriginLon) &&
		closeEnough(g.CellSize, o.CellSize)
}

// CellIndex locates the cell whose center is nearest to the given
// geographic point. The longitude is normalized into the grid's
// [-180, 180) domain first. ok is false when the point falls outside the
// grid extent; callers must treat that as "no value", never as zero.
func (g *Grid) CellIndex(lat, lon float64) (row, col int, ok bool) {
	if g.Rows == 0 || g.Cols == 0 || g.CellSize <= 0 {
		return 0, 0, false
	}
	lon = NormalizeLon(lon)

	row = int(math.Round((lat - g.OriginLat) / g.CellSize))
	col = int(math.Round((lon - g.OriginLon) / g.CellSize))
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, 0, false
	}
	return row, col, true
}

// NormalizeLon maps a longitude from the [0, 360) convention used by many
// GRIB products into [-180, 180). Values already in range pass through.
func NormalizeLon(lon float64) float64 {
	if lon >= 180 {
		return math.Mod(lon+180, 360) - 180
	}
	if lon < -180 {
		return math.Mod(lon-180, 360) + 180
	}
	return lon
}

// closeEnough compares coordinates with a tolerance well below one cell of
// the 0.1-degree source grid, absorbing float drift in decoded metadata.
func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
