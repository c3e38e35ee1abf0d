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
	ObservationsIngested *prometheus.CounterVec
	ItemsCreated         *prometheus.CounterVec
	DuplicatesFlagged    *prometheus.CounterVec
	ItemFailures         *prometheus.CounterVec
	DuplicateRunNoOps    *prometheus.CounterVec
	PlatformFailures     *prometheus.CounterVec
	CollectLatency       *prometheus.HistogramVec

	// Ranking metrics
	GrowthResults *prometheus.GaugeVec
	RecordsRanked *prometheus.GaugeVec
	PublishErrors *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wishlist_momentum"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ObservationsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_total",
			Help:      "Total number of observations ingested, by platform",
		}, []string{"platform"}),
		ItemsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "items_created_total",
			Help:      "Total number of new items registered, by platform",
		}, []string{"platform"}),
		DuplicatesFlagged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "potential_duplicates_total",
			Help:      "Total number of new items flagged as potential duplicates, by platform",
		}, []string{"platform"}),
		ItemFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "item_failures_total",
			Help:      "Total number of observations that failed to ingest, by platform",
		}, []string{"platform"}),
		DuplicateRunNoOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicate_run_snapshots_total",
			Help:      "Total number of snapshots skipped because the run already recorded them",
		}, []string{"platform"}),
		PlatformFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "platform_failures_total",
			Help:      "Total number of platforms whose collection failed",
		}, []string{"platform"}),
		CollectLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "collect_duration_seconds",
			Help:      "Time spent collecting one platform",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"platform"}),

		GrowthResults: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "growth_results",
			Help:      "Growth results in the last computation, by window",
		}, []string{"window"}),
		RecordsRanked: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "records_ranked",
			Help:      "Momentum records in the last published set, by window",
		}, []string{"window"}),
		PublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "publish_errors_total",
			Help:      "Total number of failed fan-out publishes, by sink",
		}, []string{"sink"}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"status"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPipelineRun records a finished pipeline run.
func (m *Metrics) RecordPipelineRun(status string, durationSeconds float64, finishedUnix int64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	m.PipelineDuration.WithLabelValues(status).Observe(durationSeconds)
	if status == "success" {
		m.LastSuccessfulRun.Set(float64(finishedUnix))
	}
}

// RecordObservation counts one ingested observation.
func (m *Metrics) RecordObservation(platform string, isNew, potentialDuplicate bool) {
	if m == nil {
		return
	}
	m.ObservationsIngested.WithLabelValues(platform).Inc()
	if isNew {
		m.ItemsCreated.WithLabelValues(platform).Inc()
	}
	if potentialDuplicate {
		m.DuplicatesFlagged.WithLabelValues(platform).Inc()
	}
}

// RecordItemFailure counts one observation that could not be ingested.
func (m *Metrics) RecordItemFailure(platform string) {
	if m == nil {
		return
	}
	m.ItemFailures.WithLabelValues(platform).Inc()
}

// RecordDuplicateRun counts one snapshot skipped as already recorded.
func (m *Metrics) RecordDuplicateRun(platform string) {
	if m == nil {
		return
	}
	m.DuplicateRunNoOps.WithLabelValues(platform).Inc()
}

// RecordCollect observes one platform collection.
func (m *Metrics) RecordCollect(platform string, durationSeconds float64, failed bool) {
	if m == nil {
		return
	}
	m.CollectLatency.WithLabelValues(platform).Observe(durationSeconds)
	if failed {
		m.PlatformFailures.WithLabelValues(platform).Inc()
	}
}

// RecordRanking sets the ranking gauges of one window.
func (m *Metrics) RecordRanking(window string, results, records int) {
	if m == nil {
		return
	}
	m.GrowthResults.WithLabelValues(window).Set(float64(results))
	m.RecordsRanked.WithLabelValues(window).Set(float64(records))
}

// RecordPublishError counts one failed fan-out publish.
func (m *Metrics) RecordPublishError(sink string) {
	if m == nil {
		return
	}
	m.PublishErrors.WithLabelValues(sink).Inc()
}
