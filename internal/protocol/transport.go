package protocol

import (
	"context"
	"fmt"
	"net"
	"time"
)

// dialTCP opens a TCP connection and arms a deadline covering the whole
// exchange. The connection is closed early if ctx is cancelled so a losing
// Auto attempt cannot linger until its timeout.
func dialTCP(ctx context.Context, host string, port int, timeout time.Duration) (net.Conn, func(), error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", HostPort(host, port))
	if err != nil {
		return nil, nil, classify(err)
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		// Force pending reads/writes to fail immediately.
		_ = conn.SetDeadline(time.Unix(0, 1))
	})
	cleanup := func() {
		stop()
		_ = conn.Close()
	}

	return conn, cleanup, nil
}

// resolveUDP resolves host to a UDP address through the context-aware
// resolver. IP literals pass through without a DNS query.
func resolveUDP(ctx context.Context, host string, port int) (*net.UDPAddr, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, classify(err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDNSFailure, host)
	}

	return &net.UDPAddr{IP: addrs[0].IP, Zone: addrs[0].Zone, Port: port}, nil
}

// exchangeUDP sends one datagram to raddr and waits for a single reply
// within the timeout.
func exchangeUDP(ctx context.Context, raddr *net.UDPAddr, payload []byte, timeout time.Duration) ([]byte, error) {
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(0, 1))
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, classify(err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, classify(err)
	}

	return buf[:n], nil
}
