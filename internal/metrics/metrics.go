package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the asset pipeline
type Metrics struct {
	itemsUploaded    prometheus.Counter
	itemsDeleted     prometheus.Counter
	uploadFailures   prometheus.Counter
	jobsSubmitted    prometheus.Counter
	artifactsStaged  prometheus.Counter
	previewCacheHits *prometheus.CounterVec
	uploadLatency    prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		itemsUploaded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "items_uploaded_total",
				Help: "Total number of items successfully uploaded",
			},
		),
		itemsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "items_deleted_total",
				Help: "Total number of items deleted",
			},
		),
		uploadFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "item_upload_failures_total",
				Help: "Total number of failed item uploads (after rollback)",
			},
		),
		jobsSubmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "generation_jobs_submitted_total",
				Help: "Total number of 3D generation jobs submitted upstream",
			},
		),
		artifactsStaged: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "generation_artifacts_staged_total",
				Help: "Total number of generated model files staged into storage",
			},
		),
		previewCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preview_cache_requests_total",
				Help: "Preview model requests by cache outcome",
			},
			[]string{"outcome"},
		),
		uploadLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "item_upload_latency_ms",
				Help:    "Latency of full item uploads in milliseconds",
				Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
	}
}

// All recorders tolerate a nil receiver so metrics stay optional in tests.

func (m *Metrics) ItemUploaded() {
	if m != nil {
		m.itemsUploaded.Inc()
	}
}

func (m *Metrics) ItemDeleted() {
	if m != nil {
		m.itemsDeleted.Inc()
	}
}

func (m *Metrics) UploadFailed() {
	if m != nil {
		m.uploadFailures.Inc()
	}
}

func (m *Metrics) JobSubmitted() {
	if m != nil {
		m.jobsSubmitted.Inc()
	}
}

func (m *Metrics) ArtifactStaged() {
	if m != nil {
		m.artifactsStaged.Inc()
	}
}

func (m *Metrics) PreviewCacheHit() {
	if m != nil {
		m.previewCacheHits.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) PreviewCacheMiss() {
	if m != nil {
		m.previewCacheHits.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ObserveUploadLatency(ms float64) {
	if m != nil {
		m.uploadLatency.Observe(ms)
	}
}
