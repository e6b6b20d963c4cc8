package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reverse_r"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// estimation pipeline.
type Metrics struct {
	SnapshotsRead prometheus.Counter
	RowsParsed    prometheus.Counter
	RowsDropped   prometheus.Counter
	Regions       prometheus.Gauge
	GapWindows    prometheus.Counter

	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	// Sink metrics.
	TablesWritten *prometheus.CounterVec // labels: sink
	SinkErrors    *prometheus.CounterVec // labels: sink
}

func newMetrics() *Metrics {
	return &Metrics{
		SnapshotsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_read_total",
			Help:      "Total daily snapshot files read.",
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Total report rows attributed to a region.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Total report rows dropped by the denylist or ship policy.",
		}),
		Regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions",
			Help:      "Number of regions in the last built database.",
		}),
		GapWindows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gap_windows_total",
			Help:      "Smoothing windows that spanned missing or duplicate days.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete read-estimate-write run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote every sink.",
		}),
		TablesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_written_total",
			Help:      "Region tables written, by sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed sink writes, by sink.",
		}, []string{"sink"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SnapshotsRead,
		m.RowsParsed,
		m.RowsDropped,
		m.Regions,
		m.GapWindows,
		m.RunDuration,
		m.PipelineRunning,
		m.LastSuccess,
		m.TablesWritten,
		m.SinkErrors,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
