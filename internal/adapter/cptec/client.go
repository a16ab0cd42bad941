// Package cptec acquires MERGE/CPTEC hourly precipitation GRIB2 files and
// exposes them to the core as decoded grids.
package cptec

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/precip-data-etl/internal/config"
)

// ErrNotAvailable signals that the archive has no file for the requested
// hour. Absence is an expected outcome (publication lag, gaps in the
// archive), not a fault.
var ErrNotAvailable = errors.New("hour not available in archive")

// Client downloads per-hour GRIB2 files into a local directory, skipping
// hours already on disk. Transient failures are retried with exponential
// backoff behind a circuit breaker so a flapping archive cannot stall the
// whole run.
type Client struct {
	urlTemplate string
	dir         string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	logger      *slog.Logger
}

// NewClient creates a CPTEC archive client from config. InsecureTLS skips
// certificate verification; the CPTEC FTP-over-HTTPS mirror regularly
// serves an invalid chain.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // mirror serves a broken chain
	}

	return &Client{
		urlTemplate: cfg.SourceURLTemplate,
		dir:         cfg.GribDir,
		httpClient: &http.Client{
			Timeout:   cfg.FetchTimeout,
			Transport: transport,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "cptec-archive",
		}),
		maxRetries: cfg.FetchRetries,
		logger:     logger,
	}
}

// archiveURL expands the %Y, %m, %d, %H placeholders in a URL template from
// a UTC hour. All other template text is literal and passes through
// untouched.
func archiveURL(template string, hour time.Time) string {
	hour = hour.UTC()
	return strings.NewReplacer(
		"%Y", hour.Format("2006"),
		"%m", hour.Format("01"),
		"%d", hour.Format("02"),
		"%H", hour.Format("15"),
	).Replace(template)
}

// Path returns the local cache path for an hour's file.
func (c *Client) Path(hour time.Time) string {
	return filepath.Join(c.dir, fmt.Sprintf("MERGE_CPTEC_%s.grib2", hour.UTC().Format("2006010215")))
}

// Ensure makes an hour's file present in the local cache and returns its
// path. A file already on disk is reused without touching the network.
// Returns ErrNotAvailable when the archive has no file for the hour.
func (c *Client) Ensure(ctx context.Context, hour time.Time) (string, error) {
	path := c.Path(hour)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create grib dir: %w", err)
	}

	url := archiveURL(c.urlTemplate, hour)

	backoff := 500 * time.Millisecond
	const maxBackoff = 5 * time.Second

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		err := c.download(ctx, url, path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, ErrNotAvailable) {
			return "", err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("archive circuit open: %w", err)
		}

		lastErr = err
		if attempt >= c.maxRetries {
			return "", fmt.Errorf("download %s: %w", url, lastErr)
		}

		c.logger.Warn("grid download failed, retrying",
			"url", url, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return "", ctx.Err()
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// notFound marks a clean 404 inside the breaker callback. It travels as a
// result value, not an error, so routine absence never trips the breaker.
type notFound struct{}

// download fetches one file through the circuit breaker, writing to a temp
// file first so a partial body never masquerades as a cached grid.
func (c *Client) download(ctx context.Context, url, path string) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("archive request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return notFound{}, nil
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("archive status %d", resp.StatusCode)
		}

		tmp, err := os.CreateTemp(c.dir, ".download-*")
		if err != nil {
			return nil, fmt.Errorf("create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, resp.Body); err != nil {
			tmp.Close()
			return nil, fmt.Errorf("write body: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return nil, fmt.Errorf("close temp file: %w", err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			return nil, fmt.Errorf("move into cache: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	if _, ok := result.(notFound); ok {
		return ErrNotAvailable
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
