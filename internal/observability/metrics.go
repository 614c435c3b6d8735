package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	StrikesReceived prometheus.Counter
	Heartbeats      prometheus.Counter
	DecodeErrors    prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Classification outcomes.
	BelowThreshold  prometheus.Counter
	OutsideGeofence prometheus.Counter
	DedupSuppressed prometheus.Counter
	AlertsAppended  prometheus.Counter

	LedgerWriteErrors prometheus.Counter

	// Feed connection lifecycle.
	FeedConnected  prometheus.Gauge
	FeedReconnects prometheus.Counter

	// Optional Kafka alert mirror.
	MirrorEnabled  prometheus.Gauge
	AlertsMirrored prometheus.Counter
	MirrorErrors   prometheus.Counter

	ProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StrikesReceived,
		m.Heartbeats,
		m.DecodeErrors,
		m.PipelineRunning,
		m.BelowThreshold,
		m.OutsideGeofence,
		m.DedupSuppressed,
		m.AlertsAppended,
		m.LedgerWriteErrors,
		m.FeedConnected,
		m.FeedReconnects,
		m.MirrorEnabled,
		m.AlertsMirrored,
		m.MirrorErrors,
		m.ProcessingDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StrikesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "strikes_received_total",
			Help:      "Total messages received from the upstream feed, heartbeats included.",
		}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "heartbeats_total",
			Help:      "Total heartbeat messages received from the feed.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "decode_errors_total",
			Help:      "Total malformed feed messages dropped at the feed boundary.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lightning_alert",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BelowThreshold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "strikes_below_threshold_total",
			Help:      "Strikes discarded for not meeting the minimum peak current.",
		}),
		OutsideGeofence: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "strikes_outside_geofence_total",
			Help:      "Qualifying strikes with no watched location in range.",
		}),
		DedupSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "dedup_suppressed_total",
			Help:      "Per-location candidate exclusions because the location was already alerted that day.",
		}),
		AlertsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "alerts_appended_total",
			Help:      "Alert records appended to the ledger.",
		}),
		LedgerWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "ledger_write_errors_total",
			Help:      "Failed ledger flushes; the affected alert is lost.",
		}),
		FeedConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lightning_alert",
			Name:      "feed_connected",
			Help:      "1 while the upstream feed connection is established.",
		}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "feed_reconnects_total",
			Help:      "Reconnection attempts after connect failures or dropped connections.",
		}),
		MirrorEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lightning_alert",
			Name:      "kafka_mirror_enabled",
			Help:      "1 when the Kafka alert mirror is enabled, 0 otherwise.",
		}),
		AlertsMirrored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "alerts_mirrored_total",
			Help:      "Alert records published to the Kafka mirror topic.",
		}),
		MirrorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightning_alert",
			Name:      "mirror_errors_total",
			Help:      "Failed Kafka mirror publishes; mirroring is best-effort.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lightning_alert",
			Name:      "processing_duration_seconds",
			Help:      "Duration of classifying one strike event, ledger flush included.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}
