// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	MessagesReceived   *prometheus.CounterVec // by topic kind
	MessagesDropped    *prometheus.CounterVec // by topic kind and reason
	TransactionsStored prometheus.Counter
	FraudResultsStored *prometheus.CounterVec // by predicted label
	HandleDuration     *prometheus.HistogramVec

	// Edge emitter metrics
	RowsReplayed    prometheus.Counter
	PublishErrors   *prometheus.CounterVec
	AlertsSent      prometheus.Counter
	AlertSendErrors prometheus.Counter

	// Dashboard metrics
	SnapshotRefreshes     prometheus.Counter
	SnapshotRefreshErrors prometheus.Counter
	SnapshotDuration      prometheus.Histogram

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered on
// the given registerer (nil means the default registry).
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "fog_fraud_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "messages_received_total",
			Help:      "Total number of bus messages received by topic kind",
		}, []string{"kind"}),
		MessagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "messages_dropped_total",
			Help:      "Total number of bus messages dropped by topic kind and reason",
		}, []string{"kind", "reason"}),
		TransactionsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_stored_total",
			Help:      "Total number of transaction rows written",
		}),
		FraudResultsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fraud_results_stored_total",
			Help:      "Total number of fraud result rows written by predicted label",
		}, []string{"label"}),
		HandleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "handle_duration_seconds",
			Help:      "Per-message handling latency by topic kind",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		RowsReplayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "edge",
			Name:      "rows_replayed_total",
			Help:      "Total number of dataset rows replayed through the classifier",
		}),
		PublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "edge",
			Name:      "publish_errors_total",
			Help:      "Total number of mid-stream publish failures by topic kind",
		}, []string{"kind"}),
		AlertsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "edge",
			Name:      "alerts_sent_total",
			Help:      "Total number of fraud alert emails sent",
		}),
		AlertSendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "edge",
			Name:      "alert_send_errors_total",
			Help:      "Total number of fraud alert email failures (non-fatal)",
		}),

		SnapshotRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "snapshot_refreshes_total",
			Help:      "Total number of dashboard snapshot rebuilds",
		}),
		SnapshotRefreshErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "snapshot_refresh_errors_total",
			Help:      "Total number of failed dashboard snapshot rebuilds",
		}),
		SnapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "snapshot_duration_seconds",
			Help:      "Dashboard snapshot rebuild latency",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database errors by operation",
		}, []string{"operation"}),
	}
}

// Handler returns the Prometheus metrics HTTP handler for the default
// registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
