package protocol

import (
	"context"
	"net"
	"strings"
	"time"
)

// Result carries the outcome of one successful probe: exactly one of Java
// or Bedrock is set, and Protocol names which.
type Result struct {
	Protocol Preference
	Java     *JavaStatus
	Bedrock  *BedrockStatus
}

// Probe dispatches one probe of addr according to the protocol preference.
//
// Java and Bedrock run a single attempt against their default port when the
// address carries none. Auto races both protocols concurrently and returns
// the first success; when both fail the Bedrock failure is reported. The
// losing attempt is cancelled promptly.
func Probe(ctx context.Context, addr Address, pref Preference, timeout time.Duration) (*Result, error) {
	switch pref {
	case Java:
		return probeJava(ctx, addr, timeout)
	case Bedrock:
		return probeBedrock(ctx, addr, timeout)
	default:
		return probeAuto(ctx, addr, timeout)
	}
}

func probeJava(ctx context.Context, addr Address, timeout time.Duration) (*Result, error) {
	host, port := javaTarget(ctx, addr)

	status, err := PingJava(ctx, host, port, timeout)
	if err != nil {
		return nil, err
	}
	return &Result{Protocol: Java, Java: status}, nil
}

func probeBedrock(ctx context.Context, addr Address, timeout time.Duration) (*Result, error) {
	status, err := PingBedrock(ctx, addr.Host, addr.PortOr(DefaultBedrockPort), timeout)
	if err != nil {
		return nil, err
	}
	return &Result{Protocol: Bedrock, Bedrock: status}, nil
}

// probeAuto races both protocols and keeps the first success. Both
// failures are collected so the caller sees the Bedrock error when neither
// protocol answers.
func probeAuto(ctx context.Context, addr Address, timeout time.Duration) (*Result, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type attempt struct {
		proto  Preference
		result *Result
		err    error
	}
	results := make(chan attempt, 2)

	go func() {
		res, err := probeJava(raceCtx, addr, timeout)
		results <- attempt{Java, res, err}
	}()
	go func() {
		res, err := probeBedrock(raceCtx, addr, timeout)
		results <- attempt{Bedrock, res, err}
	}()

	var javaErr, bedrockErr error
	for i := 0; i < 2; i++ {
		a := <-results
		if a.err == nil {
			// Winner takes it; cancelling raceCtx unblocks the loser.
			return a.result, nil
		}
		if a.proto == Bedrock {
			bedrockErr = a.err
		} else {
			javaErr = a.err
		}
	}

	if bedrockErr != nil {
		return nil, bedrockErr
	}
	return nil, javaErr
}

// javaTarget resolves the Java dial target: an explicit port wins, then a
// _minecraft._tcp SRV record, then the default port. SRV lookup failures
// are never fatal.
func javaTarget(ctx context.Context, addr Address) (string, int) {
	if addr.Port != 0 {
		return addr.Host, addr.Port
	}
	if net.ParseIP(addr.Host) == nil {
		if host, port, ok := lookupMinecraftSRV(ctx, addr.Host); ok {
			return host, port
		}
	}
	return addr.Host, DefaultJavaPort
}

// srvResolver is swappable for tests.
var srvResolver = net.DefaultResolver

func lookupMinecraftSRV(ctx context.Context, host string) (string, int, bool) {
	_, records, err := srvResolver.LookupSRV(ctx, "minecraft", "tcp", host)
	if err != nil || len(records) == 0 {
		return "", 0, false
	}

	target := records[0]
	return strings.TrimSuffix(target.Target, "."), int(target.Port), true
}
