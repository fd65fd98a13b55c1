package server

import (
	"time"

	"github.com/craftstat/craftstat/internal/metrics"
	"github.com/craftstat/craftstat/internal/probe"
)

// Server holds the dependencies and configuration required to serve the
// status API.
type Server struct {
	// probes runs the full probe pipeline for a requested address.
	probes *probe.Orchestrator

	// metrics records API counters and latencies. May be nil.
	metrics *metrics.Collector

	// alwaysIdenticon is the configured default for ignoring server
	// favicons; requests can force it on with identicon=always.
	alwaysIdenticon bool

	// maxAddrLen caps the length of the address query parameter to keep
	// obviously bogus input away from DNS.
	maxAddrLen int

	// rateCount is the maximum number of requests allowed per IP address
	// within the rateWindow duration.
	rateCount int

	// rateWindow is the time window duration for the per-IP rate limiter.
	rateWindow time.Duration

	// trustProxy indicates whether the server should trust headers like
	// X-Forwarded-For or CF-Connecting-IP when determining the client IP.
	trustProxy bool
}
