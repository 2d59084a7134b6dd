// Package metrics holds the proxy's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics for the geocoding proxy.
type Metrics struct {
	Requests         *prometheus.CounterVec
	CacheEvents      *prometheus.CounterVec
	RateLimitDenials prometheus.Counter
	UpstreamLatency  *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec
}

// New creates and registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoproxy_requests_total",
				Help: "Total proxy requests by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		CacheEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoproxy_cache_events_total",
				Help: "Cache lookups by result.",
			},
			[]string{"result"},
		),
		RateLimitDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "geoproxy_rate_limit_denials_total",
				Help: "Requests denied by the proxy's own rate limit.",
			},
		),
		UpstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geoproxy_upstream_latency_seconds",
				Help:    "Latency of upstream provider calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoproxy_upstream_errors_total",
				Help: "Upstream provider failures by reason.",
			},
			[]string{"provider", "reason"},
		),
	}
}

// RecordRequest counts one finished request.
func (m *Metrics) RecordRequest(endpoint, outcome string) {
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCache counts one cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if hit {
		m.CacheEvents.WithLabelValues("hit").Inc()
	} else {
		m.CacheEvents.WithLabelValues("miss").Inc()
	}
}

// RecordUpstream records the latency of one provider call and, when it
// failed, the failure reason.
func (m *Metrics) RecordUpstream(provider string, d time.Duration, reason string) {
	m.UpstreamLatency.WithLabelValues(provider).Observe(d.Seconds())
	if reason != "" {
		m.UpstreamErrors.WithLabelValues(provider, reason).Inc()
	}
}
