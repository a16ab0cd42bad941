package cptec

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/nilsmagnus/grib/griblib"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
)

// coordScale converts the micro-degree integers GRIB2 stores coordinates in.
const coordScale = 1e-6

// decodeGrid reads a MERGE/CPTEC GRIB2 stream and returns its precipitation
// field as a domain grid: longitudes normalized into [-180, 180), rows
// stored south to north. The first latitude/longitude-gridded message is
// used; MERGE hourly files carry exactly one.
func decodeGrid(r io.Reader, hour time.Time) (*domain.HourlyGrid, error) {
	messages, err := griblib.ReadMessages(r)
	if err != nil {
		return nil, fmt.Errorf("read grib messages: %w", err)
	}

	for _, msg := range messages {
		grid0, ok := msg.Section3.Definition.(*griblib.Grid0)
		if !ok {
			continue
		}
		return gridFromMessage(msg, grid0, hour)
	}
	return nil, fmt.Errorf("no latitude/longitude grid message in file")
}

// gridFromMessage maps one decoded GRIB message onto domain.HourlyGrid.
func gridFromMessage(msg *griblib.Message, grid0 *griblib.Grid0, hour time.Time) (*domain.HourlyGrid, error) {
	cols := int(grid0.Ni)
	rows := int(grid0.Nj)
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("degenerate grid %dx%d", rows, cols)
	}

	data := msg.Section7.Data
	if len(data) != rows*cols {
		return nil, fmt.Errorf("data length %d does not match %dx%d grid", len(data), rows, cols)
	}

	di := math.Abs(float64(grid0.Di)) * coordScale
	dj := math.Abs(float64(grid0.Dj)) * coordScale
	if di <= 0 || math.Abs(di-dj) > 1e-9 {
		return nil, fmt.Errorf("non-uniform cell size %vx%v not supported", di, dj)
	}

	la1 := float64(grid0.La1) * coordScale
	la2 := float64(grid0.La2) * coordScale
	lo1 := domain.NormalizeLon(float64(grid0.Lo1) * coordScale)
	lo2 := domain.NormalizeLon(float64(grid0.Lo2) * coordScale)

	g := &domain.HourlyGrid{
		Grid: domain.Grid{
			CRS:       domain.GeographicCRS,
			OriginLat: math.Min(la1, la2),
			OriginLon: math.Min(lo1, lo2),
			CellSize:  di,
			Rows:      rows,
			Cols:      cols,
			Values:    make([]float64, 0, len(data)),
		},
		Hour: hour,
	}

	if la1 > la2 {
		// Scanned north to south; flip rows into south-up storage.
		for row := rows - 1; row >= 0; row-- {
			g.Values = append(g.Values, data[row*cols:(row+1)*cols]...)
		}
	} else {
		g.Values = append(g.Values, data...)
	}

	// MERGE encodes dry cells as small negatives after unpacking; clamp so
	// the core only ever sees valid non-negative millimeters.
	for i, v := range g.Values {
		if v < 0 || math.IsNaN(v) {
			g.Values[i] = 0
		}
	}

	return g, nil
}
