// Package status defines the unified server status model produced by a
// probe, independent of which wire protocol answered.
package status

import (
	"encoding/json"
	"fmt"

	"github.com/craftstat/craftstat/internal/protocol"
)

// WeekDays is the number of daily buckets kept in the stats window: the
// last seven full days plus the running current day.
const WeekDays = 8

// RangeStats summarizes player counts over one day bucket.
type RangeStats struct {
	PeakOnline    int64 `json:"peak_online"`
	AverageOnline int64 `json:"average_online"`
}

// WeekStats carries the daily stats window, ordered oldest to newest with
// the current day last.
type WeekStats struct {
	DailyStats [WeekDays]RangeStats `json:"daily_stats"`
	PeakOnline int64                `json:"peak_online"`
	PeakMax    int64                `json:"peak_max"`
}

// VersionInfo describes the server software version.
type VersionInfo struct {
	Name     string `json:"name"`
	Protocol int64  `json:"protocol"`
}

// PlayerCounts describes the online player situation.
type PlayerCounts struct {
	Online int64                   `json:"online"`
	Max    int64                   `json:"max"`
	Sample []protocol.PlayerSample `json:"sample,omitempty"`
}

// FaviconKind tags the origin of a favicon.
type FaviconKind int

const (
	// FaviconNone means no icon is available at all.
	FaviconNone FaviconKind = iota
	// FaviconServerProvided is an icon the server itself sent.
	FaviconServerProvided
	// FaviconGenerated is a deterministic identicon made up for the server.
	FaviconGenerated
)

func (k FaviconKind) String() string {
	switch k {
	case FaviconServerProvided:
		return "server_provided"
	case FaviconGenerated:
		return "generated"
	default:
		return "none"
	}
}

// MarshalJSON renders the kind as its string form.
func (k FaviconKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses the string form.
func (k *FaviconKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "server_provided":
		*k = FaviconServerProvided
	case "generated":
		*k = FaviconGenerated
	case "none":
		*k = FaviconNone
	default:
		return fmt.Errorf("unknown favicon kind %q", s)
	}
	return nil
}

// Favicon is a tagged server icon. Data is a base64 PNG and is non-empty
// exactly when Kind is not FaviconNone; use the constructors to keep that
// invariant.
type Favicon struct {
	Kind FaviconKind `json:"kind"`
	Data string      `json:"data,omitempty"`
}

// NoFavicon returns the empty favicon.
func NoFavicon() Favicon {
	return Favicon{Kind: FaviconNone}
}

// ServerFavicon wraps a server-provided base64 PNG; empty data degrades to
// NoFavicon.
func ServerFavicon(data string) Favicon {
	if data == "" {
		return NoFavicon()
	}
	return Favicon{Kind: FaviconServerProvided, Data: data}
}

// GeneratedFavicon wraps a generated base64 PNG; empty data degrades to
// NoFavicon.
func GeneratedFavicon(data string) Favicon {
	if data == "" {
		return NoFavicon()
	}
	return Favicon{Kind: FaviconGenerated, Data: data}
}

// ServerStatus is the unified probe result. It is a closed sum: exactly
// Online, Offline or Unreachable.
type ServerStatus interface {
	// State names the variant: "online", "offline" or "unreachable".
	State() string

	sealed()
}

// Online means the server answered a status probe.
type Online struct {
	// Protocol is the protocol that answered, "java" or "bedrock".
	Protocol string `json:"protocol"`
	// LatencyMS is the probe round-trip wall time in milliseconds.
	LatencyMS   uint64       `json:"latency_ms"`
	Version     VersionInfo  `json:"version"`
	Players     PlayerCounts `json:"players"`
	Description string       `json:"description"`
	Favicon     Favicon      `json:"favicon"`
	Week        WeekStats    `json:"week_stats"`
}

// Offline means the probe failed but the server has answered before; the
// payload is cached data.
type Offline struct {
	Favicon Favicon   `json:"favicon"`
	Week    WeekStats `json:"week_stats"`
}

// Unreachable means the probe failed and the server has never been seen
// online. Error is a short human phrase, not a diagnostic.
type Unreachable struct {
	Error string `json:"error"`
}

func (Online) State() string      { return "online" }
func (Offline) State() string     { return "offline" }
func (Unreachable) State() string { return "unreachable" }

func (Online) sealed()      {}
func (Offline) sealed()     {}
func (Unreachable) sealed() {}

// Rendered is the JSON envelope form of a ServerStatus.
type Rendered struct {
	State   string   `json:"state"`
	Online  *Online  `json:"online,omitempty"`
	Offline *Offline `json:"offline,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Render wraps a ServerStatus for JSON output.
func Render(s ServerStatus) Rendered {
	switch v := s.(type) {
	case Online:
		return Rendered{State: v.State(), Online: &v}
	case Offline:
		return Rendered{State: v.State(), Offline: &v}
	case Unreachable:
		return Rendered{State: v.State(), Error: v.Error}
	default:
		// The sum is sealed; this cannot happen.
		return Rendered{State: "unreachable", Error: "unknown status"}
	}
}
