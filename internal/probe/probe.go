// Package probe is the public entry point of the status pipeline: it runs
// the full probe, detect, normalize, cache cycle for one server address and
// returns a single immutable ServerStatus snapshot.
package probe

import (
	"context"
	"time"

	"github.com/craftstat/craftstat/internal/identicon"
	"github.com/craftstat/craftstat/internal/metrics"
	"github.com/craftstat/craftstat/internal/protocol"
	"github.com/craftstat/craftstat/internal/status"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds one protocol attempt. Five seconds keeps a probe
// well inside the run budget of widget-style callers.
const DefaultTimeout = 5 * time.Second

// Orchestrator sequences the probe pipeline. It is safe for concurrent use;
// every call is an independent, bounded, one-shot operation.
type Orchestrator struct {
	normalizer status.Normalizer
	metrics    *metrics.Collector
	timeout    time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides the per-attempt probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = collector }
}

// New builds an Orchestrator on top of a status cache.
func New(cache status.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		normalizer: status.Normalizer{
			Cache:        cache,
			GenerateIcon: identicon.Generate,
		},
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetStatus probes one server address and returns its unified status.
// alwaysIdenticon forces a generated icon even when the server provides
// one. A down server is a normal outcome (Offline or Unreachable), never
// an error. The call blocks for at most roughly one attempt timeout;
// callers decide how to schedule it off their main execution context.
func (o *Orchestrator) GetStatus(ctx context.Context, address string, pref protocol.Preference, alwaysIdenticon bool) status.ServerStatus {
	if address == "" {
		// Nothing to probe, nothing to look up.
		return status.Unreachable{Error: "no server address configured"}
	}

	addr, err := protocol.ParseAddress(address)
	if err != nil {
		log.Debug().Err(err).Str("address", address).Msg("Rejected server address")
		return status.Unreachable{Error: "invalid server address"}
	}

	// The attempt timeout also bounds DNS work (SRV, host resolution),
	// which runs on the resolver outside any socket deadline.
	probeCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	res, probeErr := protocol.Probe(probeCtx, addr, pref, o.timeout)
	elapsed := time.Since(start)

	if probeErr != nil {
		log.Debug().
			Err(probeErr).
			Str("address", addr.Key()).
			Str("protocol", pref.String()).
			Dur("elapsed", elapsed).
			Msg("Probe failed")
	} else {
		log.Debug().
			Str("address", addr.Key()).
			Str("protocol", res.Protocol.String()).
			Dur("elapsed", elapsed).
			Msg("Probe succeeded")
	}

	normalizer := o.normalizer
	normalizer.AlwaysIdenticon = alwaysIdenticon
	result := normalizer.Normalize(addr, pref, res, probeErr)

	answered := pref.String()
	if res != nil {
		answered = res.Protocol.String()
	}
	o.metrics.RecordProbe(answered, result.State(), elapsed.Seconds())
	if probeErr != nil {
		o.metrics.RecordCacheFallback(result.State())
	}

	return result
}
