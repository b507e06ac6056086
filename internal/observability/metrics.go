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
	// Screening metrics
	LedgersScreened   prometheus.Counter
	SuspiciousLedgers prometheus.Counter
	BookChangesStored prometheus.Counter

	// Collection metrics
	TradesCollected  prometheus.Counter
	FillsDropped     *prometheus.CounterVec
	DeltaFetchErrors prometheus.Counter

	// Node metrics
	NodeCallLatency *prometheus.HistogramVec
	NodeCallErrors  *prometheus.CounterVec

	// Scoring metrics
	TokensScored        prometheus.Counter
	BridgesClassified   prometheus.Counter
	ManipulationFlagged prometheus.Counter

	// Pipeline metrics
	BatchRunsTotal *prometheus.CounterVec
	BatchDuration  *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulBatch   prometheus.Gauge
	LastSuccessfulScoring prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "xrp_watchdog"
	}

	return &Metrics{
		LedgersScreened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "ledgers_screened_total",
			Help:      "Total number of ledgers screened for suspicious volume",
		}),
		SuspiciousLedgers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "suspicious_ledgers_total",
			Help:      "Total number of ledgers flagged suspicious",
		}),
		BookChangesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "book_changes_stored_total",
			Help:      "Total number of book change rows stored",
		}),

		TradesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "trades_collected_total",
			Help:      "Total number of trade executions stored",
		}),
		FillsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "fills_dropped_total",
			Help:      "Total number of fill rows dropped by reason",
		}, []string{"reason"}),
		DeltaFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "delta_fetch_errors_total",
			Help:      "Total number of failed balance delta fetches",
		}),

		NodeCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "call_latency_seconds",
			Help:      "rippled RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		NodeCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "call_errors_total",
			Help:      "Total number of rippled RPC call errors by method",
		}, []string{"method"}),

		TokensScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_scored_total",
			Help:      "Total number of tokens scored",
		}),
		BridgesClassified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "bridges_classified_total",
			Help:      "Total number of tokens classified as bridge",
		}),
		ManipulationFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "manipulation_flagged_total",
			Help:      "Total number of tokens classified as manipulation",
		}),

		BatchRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by phase and status",
		}, []string{"phase", "status"}),
		BatchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),

		LastSuccessfulBatch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_batch_timestamp",
			Help:      "Unix timestamp of the last successful collection batch",
		}),
		LastSuccessfulScoring: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scoring_timestamp",
			Help:      "Unix timestamp of the last successful scoring pass",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordBatchRun records one pipeline phase execution.
func (m *Metrics) RecordBatchRun(phase, status string, durationSeconds float64) {
	m.BatchRunsTotal.WithLabelValues(phase, status).Inc()
	m.BatchDuration.WithLabelValues(phase).Observe(durationSeconds)
}
