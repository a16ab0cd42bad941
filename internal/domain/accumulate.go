package domain

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// GridSource supplies the decompressed hourly precipitation grid for a
// requested UTC hour. present is false when no grid exists for that hour;
// absence is a regular outcome, not a fault. Implementations must be
// idempotent within one run: the same hour always yields the same grid or
// consistently reports absence.
type GridSource interface {
	Fetch(ctx context.Context, hour time.Time) (grid *HourlyGrid, present bool, err error)
}

// fetchFanout bounds concurrent hourly fetches within one window. The
// source applies its own throttling on top of this.
const fetchFanout = 6

// Accumulate sums the hourly grids of one window into a daily total.
//
// Hours are fetched concurrently but summed in chronological order so the
// result is bit-identical across runs. A missing hour contributes zero and
// marks the window incomplete; a fetch error is logged and treated the same
// way. A window where every hour is missing yields an extent-less grid with
// Complete=false; extraction over it reports every location absent.
//
// A spatial metadata disagreement among the window's grids returns a
// *ShapeMismatchError; callers abort only that window.
func Accumulate(ctx context.Context, window TimeWindow, source GridSource, logger *slog.Logger) (*DailyGrid, error) {
	hours := window.Hours()
	fetched := make([]*HourlyGrid, len(hours))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchFanout)
	for i, hour := range hours {
		g.Go(func() error {
			grid, present, err := source.Fetch(gctx, hour)
			if err != nil {
				logger.Warn("hourly grid fetch failed, treating as absent",
					"hour", hour, "window_end", window.End, "error", err)
				return nil
			}
			if present {
				fetched[i] = grid
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	daily := &DailyGrid{Window: window, Complete: true}
	for i, hg := range fetched {
		if hg == nil {
			daily.Complete = false
			daily.MissingHours = append(daily.MissingHours, hours[i])
			continue
		}
		if daily.Values == nil {
			daily.Grid = Grid{
				CRS:       hg.CRS,
				OriginLat: hg.OriginLat,
				OriginLon: hg.OriginLon,
				CellSize:  hg.CellSize,
				Rows:      hg.Rows,
				Cols:      hg.Cols,
				Values:    make([]float64, len(hg.Values)),
			}
		}
		if !daily.Grid.SameShape(&hg.Grid) {
			return nil, &ShapeMismatchError{Window: window, Hour: hours[i]}
		}
		floats.Add(daily.Values, hg.Values)
	}

	if daily.Values == nil {
		// Every hour was absent; no grid to take the shape from.
		daily.Grid = Grid{CRS: GeographicCRS}
	}
	return daily, nil
}
