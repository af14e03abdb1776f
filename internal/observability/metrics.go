// Package observability provides structured logging and Prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"polymarket-pnl/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Computation metrics
	WalletsComputed     prometheus.Counter
	ComputeDuration     prometheus.Histogram
	EventsReplayed      prometheus.Counter
	DuplicatesCollapsed prometheus.Counter
	SyntheticInferences prometheus.Counter
	WarningsEmitted     *prometheus.CounterVec
	ConfidenceTiers     *prometheus.CounterVec

	// Ingestion metrics
	EventsIngested      prometheus.Counter
	ResolutionsIngested prometheus.Counter
	BackfillDuration    prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCompute  prometheus.Gauge
	LastSuccessfulBackfill prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "polymarket_pnl"
	}

	return &Metrics{
		WalletsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "wallets_computed_total",
			Help:      "Total number of wallet computations completed",
		}),
		ComputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "compute_duration_seconds",
			Help:      "Wallet computation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		EventsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_replayed_total",
			Help:      "Total number of ledger events replayed",
		}),
		DuplicatesCollapsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "duplicates_collapsed_total",
			Help:      "Total number of duplicate ledger rows collapsed at read time",
		}),
		SyntheticInferences: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "synthetic_inferences_total",
			Help:      "Total number of synthetic split inferences",
		}),
		WarningsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "warnings_emitted_total",
			Help:      "Total number of data-quality warnings by code",
		}, []string{"code"}),
		ConfidenceTiers: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "confidence_tiers_total",
			Help:      "Total number of computed results by confidence tier",
		}, []string{"tier"}),

		EventsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_ingested_total",
			Help:      "Total number of ledger events ingested",
		}),
		ResolutionsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "resolutions_ingested_total",
			Help:      "Total number of condition resolutions ingested",
		}),
		BackfillDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "backfill_duration_seconds",
			Help:      "Wallet backfill duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulCompute: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_compute_timestamp",
			Help:      "Unix timestamp of last successful wallet computation",
		}),
		LastSuccessfulBackfill: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_backfill_timestamp",
			Help:      "Unix timestamp of last successful backfill",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWalletComputed records the metrics of one completed wallet run.
func (m *Metrics) RecordWalletComputed(durationSeconds float64, result *domain.WalletResult) {
	m.WalletsComputed.Inc()
	m.ComputeDuration.Observe(durationSeconds)
	m.EventsReplayed.Add(float64(result.EventCount))
	m.DuplicatesCollapsed.Add(float64(result.DuplicateCount))
	m.SyntheticInferences.Add(float64(result.SyntheticInferred))
	m.ConfidenceTiers.WithLabelValues(string(result.ConfidenceTier)).Inc()

	for _, w := range result.Warnings {
		m.WarningsEmitted.WithLabelValues(string(w.Code)).Inc()
	}

	m.LastSuccessfulCompute.SetToCurrentTime()
}

// RecordBackfill records the metrics of one completed wallet backfill.
func (m *Metrics) RecordBackfill(durationSeconds float64, events, resolutions int) {
	m.EventsIngested.Add(float64(events))
	m.ResolutionsIngested.Add(float64(resolutions))
	m.BackfillDuration.Observe(durationSeconds)
	m.LastSuccessfulBackfill.SetToCurrentTime()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
