// Package metrics registers and records Prometheus metrics for the probe
// pipeline and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles the application metrics.
type Collector struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	cacheFallback *prometheus.CounterVec

	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

// NewCollector registers the application metrics under the given namespace
// on the default registry.
func NewCollector(namespace string) *Collector {
	return &Collector{
		probesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Total number of server probes",
			},
			[]string{"protocol", "state"},
		),
		probeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Server probe duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"protocol"},
		),
		cacheFallback: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_fallbacks_total",
				Help:      "Total number of failed probes answered from cache",
			},
			[]string{"result"},
		),
		apiRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		apiDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

// RecordProbe counts one finished probe with its duration.
func (c *Collector) RecordProbe(protocol, state string, seconds float64) {
	if c == nil {
		return
	}
	c.probesTotal.WithLabelValues(protocol, state).Inc()
	c.probeDuration.WithLabelValues(protocol).Observe(seconds)
}

// RecordCacheFallback counts a failed probe resolved via cache ("offline")
// or without history ("unreachable").
func (c *Collector) RecordCacheFallback(result string) {
	if c == nil {
		return
	}
	c.cacheFallback.WithLabelValues(result).Inc()
}

// RecordAPIRequest counts one HTTP request.
func (c *Collector) RecordAPIRequest(method, endpoint, status string) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(method, endpoint, status).Inc()
}

// RecordAPIDuration observes one HTTP request duration.
func (c *Collector) RecordAPIDuration(method, endpoint string, seconds float64) {
	if c == nil {
		return
	}
	c.apiDuration.WithLabelValues(method, endpoint).Observe(seconds)
}
