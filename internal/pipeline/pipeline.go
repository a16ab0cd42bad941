package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
	"github.com/couchcryptid/precip-data-etl/internal/observability"
)

// Sink durably persists an assembled result table.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	// WriteTable persists the whole table; it is only called after the
	// entire requested range has been assembled.
	WriteTable(ctx context.Context, table *domain.ResultTable) error
}

// Params selects the processing range. It is passed explicitly rather than
// read from configuration so the pipeline stays a pure function of its
// inputs.
type Params struct {
	Start time.Time
	End   time.Time
}

// Pipeline assembles per-window, per-location daily precipitation rows
// across a requested range and hands the finished table to its sinks.
type Pipeline struct {
	source      domain.GridSource
	locations   []domain.Location
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
	concurrency int

	windowsDone atomic.Int64
}

// New creates a Pipeline. locations is read-only reference data shared by
// all windows; concurrency bounds how many windows are processed at once.
func New(source domain.GridSource, locations []domain.Location, sinks []Sink,
	logger *slog.Logger, metrics *observability.Metrics, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		source:      source,
		locations:   locations,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// WindowsDone reports how many accumulation windows this run has assembled.
func (p *Pipeline) WindowsDone() int64 {
	return p.windowsDone.Load()
}

// CheckReadiness returns nil once the run has assembled at least one window,
// or an error describing why the job is not yet making progress.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.windowsDone.Load() == 0 {
		return errors.New("no accumulation window assembled yet")
	}
	return nil
}

// Run processes the requested range and writes the assembled table to every
// sink. Windows are computed concurrently but collected into the table in
// window order by a single writer, so the output is deterministic.
//
// Per-window grid problems degrade that window's row; Run fails only on an
// invalid range or a sink error, and sinks are not written at all when
// assembly is aborted.
func (p *Pipeline) Run(ctx context.Context, params Params) (*domain.ResultTable, error) {
	windows, err := domain.EnumerateWindows(params.Start, params.End)
	if err != nil {
		return nil, fmt.Errorf("enumerate windows: %w", err)
	}

	p.logger.Info("pipeline started",
		"start", params.Start, "end", params.End,
		"windows", len(windows), "locations", len(p.locations),
		"concurrency", p.concurrency)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	table := domain.NewResultTable(p.locations, len(windows))

	// Results land in a slice indexed by window position; appending to the
	// table afterwards keeps it single-writer and ordered regardless of
	// which window finishes first.
	rows := make([]domain.ExtractionRow, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, w := range windows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = p.processWindow(gctx, w, table)
			p.windowsDone.Add(1)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble range: %w", err)
	}

	for _, row := range rows {
		table.Append(row)
	}

	for _, sink := range p.sinks {
		if err := sink.WriteTable(ctx, table); err != nil {
			p.metrics.SinkWrites.WithLabelValues(sink.Name(), "error").Inc()
			return nil, fmt.Errorf("write %s sink: %w", sink.Name(), err)
		}
		p.metrics.SinkWrites.WithLabelValues(sink.Name(), "success").Inc()
		p.logger.Info("sink written", "sink", sink.Name(), "rows", len(table.Rows))
	}

	p.logger.Info("pipeline finished", "rows", len(table.Rows))
	return table, nil
}

// processWindow accumulates and extracts one window. Grid-level failures
// never abort the run: the window degrades to a fully-absent incomplete row
// so the table keeps one row per expected window.
func (p *Pipeline) processWindow(ctx context.Context, w domain.TimeWindow, table *domain.ResultTable) domain.ExtractionRow {
	start := time.Now()

	daily, err := domain.Accumulate(ctx, w, p.source, p.logger)
	if err != nil {
		p.logger.Warn("window degraded to absent row", "window_end", w.End, "error", err)
		p.metrics.WindowFailures.Inc()
		return p.countAbsent(table.AbsentRow(w))
	}

	values, err := domain.ExtractPoints(daily, p.locations)
	if err != nil {
		p.logger.Warn("window degraded to absent row", "window_end", w.End, "error", err)
		p.metrics.WindowFailures.Inc()
		return p.countAbsent(table.AbsentRow(w))
	}

	if !daily.Complete {
		p.logger.Info("window incomplete",
			"window_end", w.End, "missing_hours", len(daily.MissingHours))
		p.metrics.WindowsIncomplete.Inc()
	}
	p.metrics.WindowsProcessed.Inc()
	p.metrics.WindowDuration.Observe(time.Since(start).Seconds())

	return p.countAbsent(domain.ExtractionRow{
		WindowEnd: w.End,
		Values:    values,
		Complete:  daily.Complete,
	})
}

func (p *Pipeline) countAbsent(row domain.ExtractionRow) domain.ExtractionRow {
	for _, v := range row.Values {
		if v == nil {
			p.metrics.AbsentValues.Inc()
		}
	}
	return row
}
