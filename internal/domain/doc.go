// Package domain models daily precipitation aggregation over the
// MERGE/CPTEC hourly rainfall analysis.
//
// # Data Source
//
// MERGE is the satellite/gauge merged precipitation product published by
// CPTEC/INPE. One GRIB2 file is published per UTC hour at
// https://ftp.cptec.inpe.br/modelos/tempo/MERGE/GPM/HOURLY/, each holding a
// single accumulated-precipitation field ("prec", millimeters) on a regular
// 0.1-degree latitude/longitude grid covering South America.
//
// # Grid Conventions
//
// Source files encode longitudes in the [0, 360) GRIB convention and may
// scan rows north to south. Adapters normalize both before grids enter this
// package: longitudes mapped into [-180, 180), rows stored south to north,
// columns west to east, row-major (see [Grid]). All grids within a run must
// share one shape; a disagreement inside a window is a [ShapeMismatchError].
//
// # Accumulation Windows
//
// Daily totals use a 12Z-to-12Z window rather than calendar days: hourly
// fields [end-23h .. end] sum into the window ending at 12:00 UTC (see
// [TimeWindow] and [EnumerateWindows]). Anchoring at 12Z keeps a full South
// American rainfall day (which peaks in local afternoon) inside a single
// window instead of splitting it at local midnight.
//
// # Missing Data
//
// Hours can be missing from the archive, briefly (publication lag) or
// permanently. A missing hour contributes zero to its window's total and
// clears the window's Complete flag; the partial total remains usable but
// visibly degraded. Consumers filter on the flag rather than losing the row.
// A location outside the grid extent is the other, structural kind of
// no-value and is reported as absent (nil), never as a zero rainfall.
package domain
