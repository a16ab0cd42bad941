package cptec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
	"github.com/couchcryptid/precip-data-etl/internal/observability"
)

// Source implements domain.GridSource over the CPTEC archive client: it
// ensures the hour's file is cached locally, decodes it, and reports
// archive absence as a regular not-present result.
//
// Absence is memoized per run so repeated fetches of the same hour are
// consistent even if the archive fills the gap mid-run.
type Source struct {
	client  *Client
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	absent map[time.Time]bool
}

// NewSource creates a grid source backed by the archive client.
func NewSource(client *Client, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{
		client:  client,
		logger:  logger,
		metrics: metrics,
		absent:  make(map[time.Time]bool),
	}
}

// Fetch returns the decoded grid for one UTC hour, or present=false when
// the archive has no file for it.
func (s *Source) Fetch(ctx context.Context, hour time.Time) (*domain.HourlyGrid, bool, error) {
	hour = hour.UTC().Truncate(time.Hour)

	s.mu.Lock()
	known := s.absent[hour]
	s.mu.Unlock()
	if known {
		return nil, false, nil
	}

	start := time.Now()
	path, err := s.client.Ensure(ctx, hour)
	if errors.Is(err, ErrNotAvailable) {
		s.logger.Info("hour absent from archive", "hour", hour)
		s.metrics.GridsMissing.Inc()
		s.mu.Lock()
		s.absent[hour] = true
		s.mu.Unlock()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch hour %s: %w", hour.Format(time.RFC3339), err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("open cached grid: %w", err)
	}
	defer f.Close()

	grid, err := decodeGrid(f, hour)
	if err != nil {
		// A truncated or corrupt cache file would poison every retry;
		// drop it so the next run can re-download.
		os.Remove(path)
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}

	s.metrics.GridsFetched.Inc()
	s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	return grid, true, nil
}
