// Package observability provides Prometheus instrumentation for the
// recommendation service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a
// valid no-op receiver, so instrumentation can stay optional.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cacheOps *prometheus.CounterVec
}

// New creates and registers the service metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketrec_requests_total",
			Help: "Recommendation requests by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketrec_request_duration_seconds",
			Help:    "Recommendation computation duration by strategy.",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketrec_cache_lookups_total",
			Help: "Recommendation cache lookups by strategy and result.",
		}, []string{"strategy", "result"}),
	}
	reg.MustRegister(m.requests, m.duration, m.cacheOps)
	return m
}

// Request records one completed strategy invocation.
func (m *Metrics) Request(strategy, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strategy, outcome).Inc()
	m.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// CacheHit records a cache hit for a strategy.
func (m *Metrics) CacheHit(strategy string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(strategy, "hit").Inc()
}

// CacheMiss records a cache miss for a strategy.
func (m *Metrics) CacheMiss(strategy string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(strategy, "miss").Inc()
}
