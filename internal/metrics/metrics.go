// Package metrics holds the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing, so library code and tests can run
// without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "graphnet"

type Metrics struct {
	gatherer prometheus.Gatherer

	documents      prometheus.Counter
	skipped        prometheus.Counter
	stageDuration  *prometheus.HistogramVec
	analyticsTiers *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	cacheEvictions *prometheus.CounterVec
	viewRequests   *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		documents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents that reached extraction.",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_sources_total",
			Help:      "URLs and uploads that could not be fetched or decoded.",
		}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"stage"}),
		analyticsTiers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_tier_total",
			Help:      "Algorithm tier selections per metric.",
		}, []string{"metric", "tier"}),
		cacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Queries currently held in the view cache.",
		}),
		cacheEvictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Evicted queries by reason.",
		}, []string{"reason"}),
		viewRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "Graph view requests by outcome.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentsProcessed(n int) {
	if m == nil {
		return
	}
	m.documents.Add(float64(n))
}

func (m *Metrics) SourcesSkipped(n int) {
	if m == nil {
		return
	}
	m.skipped.Add(float64(n))
}

// ObserveStage records the time elapsed since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AnalyticsTier(metric, tier string) {
	if m == nil {
		return
	}
	m.analyticsTiers.WithLabelValues(metric, tier).Inc()
}

func (m *Metrics) CacheSize(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

func (m *Metrics) CacheEvicted(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.cacheEvictions.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) ViewRequest(result string) {
	if m == nil {
		return
	}
	m.viewRequests.WithLabelValues(result).Inc()
}
