package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// precipitation ETL run.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Grid acquisition metrics.
	GridsFetched  prometheus.Counter
	GridsMissing  prometheus.Counter
	FetchDuration prometheus.Histogram

	// Window processing metrics.
	WindowsProcessed  prometheus.Counter
	WindowsIncomplete prometheus.Counter
	WindowFailures    prometheus.Counter
	WindowDuration    prometheus.Histogram

	// Extraction and persistence metrics.
	AbsentValues prometheus.Counter
	SinkWrites   *prometheus.CounterVec // labels: sink, outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_etl",
			Name:      "pipeline_running",
			Help:      "1 while the run is active, 0 once finished.",
		}),
		GridsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "grids_fetched_total",
			Help:      "Hourly grids successfully retrieved and decoded.",
		}),
		GridsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "grids_missing_total",
			Help:      "Hourly grids absent from the source archive.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_etl",
			Name:      "grid_fetch_duration_seconds",
			Help:      "Duration of one hourly grid download and decode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WindowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "windows_processed_total",
			Help:      "Accumulation windows assembled into rows.",
		}),
		WindowsIncomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "windows_incomplete_total",
			Help:      "Windows assembled with one or more missing hours.",
		}),
		WindowFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "window_failures_total",
			Help:      "Windows degraded to fully-absent rows by grid errors.",
		}),
		WindowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_etl",
			Name:      "window_duration_seconds",
			Help:      "Duration of one window's accumulate-and-extract cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		AbsentValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "absent_values_total",
			Help:      "Location/window cells recorded as absent.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "sink_writes_total",
			Help:      "Result table writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.GridsFetched,
		m.GridsMissing,
		m.FetchDuration,
		m.WindowsProcessed,
		m.WindowsIncomplete,
		m.WindowFailures,
		m.WindowDuration,
		m.AbsentValues,
		m.SinkWrites,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_etl", Name: "pipeline_running"}),
		GridsFetched:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_etl", Name: "grids_fetched_total"}),
		GridsMissing:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_etl", Name: "grids_missing_total"}),
		FetchDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "precip_etl", Name: "grid_fetch_duration_seconds"}),
		WindowsProcessed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_etl", Name: "windows_processed_total"}),
		WindowsIncomplete: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_etl", Name: "windows_incomplete_total"}),
		WindowFailures:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_etl", Name: "window_failures_total"}),
		WindowDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "precip_etl", Name: "window_duration_seconds"}),
		AbsentValues:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_etl", Name: "absent_values_total"}),
		SinkWrites:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "precip_etl", Name: "sink_writes_total"}, []string{"sink", "outcome"}),
	}
}
