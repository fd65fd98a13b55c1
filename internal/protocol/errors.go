package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Probe failure kinds. Every transport or codec error surfaced by this
// package wraps exactly one of these, so callers can match with errors.Is
// and decide on fallback vs. terminal failure.
var (
	// ErrDNSFailure indicates the hostname could not be resolved.
	ErrDNSFailure = errors.New("dns resolution failed")

	// ErrConnectionRefused indicates the host refused the connection.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrTimeout indicates the attempt exceeded its time budget.
	ErrTimeout = errors.New("connection timed out")

	// ErrMalformedResponse indicates the server replied with bytes that do
	// not decode as a valid status response (bad magic, VarInt or JSON).
	ErrMalformedResponse = errors.New("malformed server response")
)

// classify wraps a raw network error with the matching failure kind.
// Unrecognized errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %s", ErrDNSFailure, dnsErr.Name)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %s", ErrConnectionRefused, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	}

	return err
}

// FailureText maps a probe failure to the short human phrase shown to users.
// It is never a diagnostic dump.
func FailureText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDNSFailure):
		return "DNS resolution failed"
	case errors.Is(err, ErrConnectionRefused):
		return "connection refused"
	case errors.Is(err, ErrTimeout):
		return "connection timed out"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed server response"
	default:
		return "server did not respond"
	}
}
