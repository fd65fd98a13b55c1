package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Default server ports per edition.
const (
	DefaultJavaPort    = 25565
	DefaultBedrockPort = 19132
)

// Preference selects which protocol(s) a probe may speak.
type Preference int

const (
	// Auto tries both protocols and reports whichever succeeds.
	Auto Preference = iota
	// Java probes with the Java Edition status protocol only.
	Java
	// Bedrock probes with the Bedrock unconnected ping only.
	Bedrock
)

// ParsePreference parses a protocol preference from its config string form.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return Auto, nil
	case "java":
		return Java, nil
	case "bedrock":
		return Bedrock, nil
	default:
		return Auto, fmt.Errorf("unknown protocol preference %q", s)
	}
}

func (p Preference) String() string {
	switch p {
	case Java:
		return "java"
	case Bedrock:
		return "bedrock"
	default:
		return "auto"
	}
}

// Address is a parsed, normalized server address. Immutable once parsed.
type Address struct {
	// Host is the lowercased hostname or IP literal, without brackets.
	Host string
	// Port is the explicit port, or 0 when the address did not carry one.
	Port int

	key string
}

// ParseAddress normalizes and splits a user-supplied server address.
// The input is lowercased and trimmed; a trailing ":<port>" is split off
// when present. IPv6 literals must be bracketed to carry a port.
func ParseAddress(s string) (Address, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return Address{}, fmt.Errorf("empty server address")
	}

	addr := Address{key: raw}

	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		// No port part. Reject bare IPv6 with multiple colons unless bracketed.
		if strings.Count(raw, ":") >= 2 && !strings.HasPrefix(raw, "[") {
			addr.Host = raw
			return addr, nil
		}
		if strings.Contains(raw, ":") && strings.Count(raw, ":") == 1 {
			return Address{}, fmt.Errorf("invalid server address %q: %w", s, err)
		}
		addr.Host = strings.Trim(raw, "[]")
		return addr, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Address{}, fmt.Errorf("invalid port in server address %q", s)
	}

	addr.Host = host
	addr.Port = port
	return addr, nil
}

// Key returns the cache key for this address: the input lowercased exactly
// as received, including any explicit port. "host" and "host:25565" are
// deliberately distinct keys.
func (a Address) Key() string {
	return a.key
}

// PortOr returns the explicit port, or def when none was given.
func (a Address) PortOr(def int) int {
	if a.Port != 0 {
		return a.Port
	}
	return def
}

// HostPort renders host:port for dialing, bracketing IPv6 literals.
func HostPort(host string, port int) string {
	if strings.Count(host, ":") >= 1 && !strings.HasPrefix(host, "[") {
		return fmt.Sprintf("[%s]:%d", host, port)
	}
	return fmt.Sprintf("%s:%d", host, port)
}
