// Package telemetry exposes cache and backend counters to Prometheus.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "satlens"

// Metrics holds the collectors of one process. Each instance has its own
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	upserts        prometheus.Counter
	evictions      prometheus.Counter
	quotaExceeded  *prometheus.CounterVec
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	cachedResults  prometheus.Gauge
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "upserts_total",
			Help:      "Analysis results written to the result cache.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Results dropped from the result cache to respect the cap or the storage quota.",
		}),
		quotaExceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "quota_exceeded_total",
			Help:      "Writes rejected by the storage quota.",
		}, []string{"outcome"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Requests sent to the analysis backend.",
		}, []string{"operation", "status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of analysis backend requests.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		cachedResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "results",
			Help:      "Results currently held in the result cache.",
		}),
	}

	m.registry.MustRegister(
		m.upserts,
		m.evictions,
		m.quotaExceeded,
		m.backendCalls,
		m.backendLatency,
		m.cachedResults,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the /metrics scrape endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Upserted counts results written to the cache
func (m *Metrics) Upserted(n int) {
	m.upserts.Add(float64(n))
}

// Evicted counts results dropped from the cache
func (m *Metrics) Evicted(n int) {
	m.evictions.Add(float64(n))
}

// QuotaExceeded counts a quota failure. retried is true when the retry failed too.
func (m *Metrics) QuotaExceeded(retried bool) {
	outcome := "retried"
	if retried {
		outcome = "abandoned"
	}
	m.quotaExceeded.WithLabelValues(outcome).Inc()
}

// CachedResults records the cache size
func (m *Metrics) CachedResults(n int) {
	m.cachedResults.Set(float64(n))
}

// BackendCall records one backend request
func (m *Metrics) BackendCall(operation string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.backendCalls.WithLabelValues(operation, status).Inc()
	m.backendLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
