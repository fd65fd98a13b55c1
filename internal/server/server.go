// Package server implements the HTTP server, middleware, and request
// handlers of the status API.
package server

import (
	"net/http"

	"github.com/craftstat/craftstat/internal/config"
	"github.com/craftstat/craftstat/internal/metrics"
	"github.com/craftstat/craftstat/internal/probe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New creates a new Server instance with the provided probe orchestrator,
// metrics collector, and configuration.
func New(probes *probe.Orchestrator, collector *metrics.Collector, cfg *config.Config) *Server {
	return &Server{
		probes:          probes,
		metrics:         collector,
		alwaysIdenticon: cfg.Probe.AlwaysIdenticon,
		maxAddrLen:      cfg.Server.MaxAddrLen,
		rateCount:       cfg.RateLimit.Count,
		rateWindow:      cfg.RateLimit.Window,
		trustProxy:      cfg.Server.TrustProxy,
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /status", s.RateLimitMiddleware(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealth))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.LoggingMiddleware(mux)
}
