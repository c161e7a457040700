package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL
// run and the dashboard.
type Metrics struct {
	// Pipeline metrics.
	RowsRead         prometheus.Counter
	RowsDropped      prometheus.Counter
	RowsWritten      prometheus.Counter
	DuplicateIDs     prometheus.Counter
	CoercionFailures *prometheus.CounterVec // labels: column
	PersistErrors    prometheus.Counter
	RunDuration      prometheus.Histogram
	LastSuccess      prometheus.Gauge

	// Publication metrics.
	Notifications *prometheus.CounterVec // labels: outcome={success,error}
	Uploads       *prometheus.CounterVec // labels: outcome={success,error}

	// Dashboard metrics.
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
	CacheReloads  *prometheus.CounterVec // labels: source={parquet,mirror,none}
	QueryDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}

// WriteTextfile writes the current metric values to path in the
// node-exporter textfile format. One-shot jobs use this instead of /metrics.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Gatherer())
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "rows_read_total",
			Help:      "Data rows read from the source sheet.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped for a missing identifier or as duplicates.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "rows_written_total",
			Help:      "Rows published to the snapshot and mirror.",
		}),
		DuplicateIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "duplicate_ids_total",
			Help:      "Identifiers that appeared more than once in the source.",
		}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "coercion_failures_total",
			Help:      "Cells that could not be coerced to their column type.",
		}, []string{"column"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "persist_errors_total",
			Help:      "Failed snapshot or mirror writes.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrogen_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydrogen_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "snapshot_notifications_total",
			Help:      "Snapshot-published notifications by outcome.",
		}, []string{"outcome"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrogen_etl",
			Name:      "snapshot_uploads_total",
			Help:      "Snapshot uploads to object storage by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrogen_dashboard",
			Name:      "cache_lookups_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		CacheReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrogen_dashboard",
			Name:      "cache_reloads_total",
			Help:      "Dataset reloads by the source they were served from.",
		}, []string{"source"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrogen_dashboard",
			Name:      "query_duration_seconds",
			Help:      "Time to filter, sort and paginate one request.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RowsDropped,
		m.RowsWritten,
		m.DuplicateIDs,
		m.CoercionFailures,
		m.PersistErrors,
		m.RunDuration,
		m.LastSuccess,
		m.Notifications,
		m.Uploads,
		m.CacheLookups,
		m.CacheReloads,
		m.QueryDuration,
	}
}
