package status

import (
	"github.com/craftstat/craftstat/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Cache is the slice of the status cache the normalizer needs: a fallback
// lookup for failed probes and a persist hook for successful ones.
type Cache interface {
	// Lookup returns the cached entry for a normalized address key, or nil
	// when the address has never been cached.
	Lookup(key string) (*CachedStatus, error)

	// Persist stores the favicon and folds the online/max counts into
	// today's stats bucket, returning the resulting week window. The
	// returned stats are usable even when the write itself failed.
	Persist(key, favicon string, generated bool, online, max int64) (WeekStats, error)
}

// CachedStatus is the cached fallback data for one server address.
type CachedStatus struct {
	Favicon   string
	Generated bool
	Week      WeekStats
}

// Normalizer maps raw probe results into the unified ServerStatus model.
type Normalizer struct {
	Cache Cache

	// AlwaysIdenticon forces generated icons even when the server provides
	// a favicon.
	AlwaysIdenticon bool

	// GenerateIcon renders the fallback identicon for a seed string as
	// base64 PNG.
	GenerateIcon func(seed string) string
}

// Normalize builds the unified status for one probe outcome. res is the
// successful raw result, or nil with probeErr set on failure.
func (n Normalizer) Normalize(addr protocol.Address, pref protocol.Preference, res *protocol.Result, probeErr error) ServerStatus {
	if res != nil {
		return n.normalizeSuccess(addr, res)
	}
	return n.normalizeFailure(addr, pref, probeErr)
}

func (n Normalizer) normalizeSuccess(addr protocol.Address, res *protocol.Result) ServerStatus {
	online := Online{Protocol: res.Protocol.String()}

	var serverIcon string
	switch res.Protocol {
	case protocol.Java:
		j := res.Java
		online.LatencyMS = uint64(j.Latency.Milliseconds())
		online.Version = VersionInfo{Name: j.VersionName, Protocol: j.ProtocolVersion}
		online.Players = PlayerCounts{Online: j.OnlinePlayers, Max: j.MaxPlayers, Sample: j.Sample}
		online.Description = j.Description
		serverIcon = j.Favicon
	case protocol.Bedrock:
		b := res.Bedrock
		online.LatencyMS = uint64(b.Latency.Milliseconds())
		online.Version = VersionInfo{Name: b.VersionName, Protocol: b.ProtocolVersion}
		online.Players = PlayerCounts{Online: b.OnlinePlayers, Max: b.MaxPlayers}
		online.Description = b.Description
	}

	if serverIcon != "" && !n.AlwaysIdenticon {
		online.Favicon = ServerFavicon(serverIcon)
	} else {
		online.Favicon = GeneratedFavicon(n.icon(res.Protocol, addr))
	}

	// Persist whichever favicon was chosen so the offline fallback always
	// has something to show.
	week, err := n.Cache.Persist(
		addr.Key(),
		online.Favicon.Data,
		online.Favicon.Kind == FaviconGenerated,
		online.Players.Online,
		online.Players.Max,
	)
	if err != nil {
		log.Error().Err(err).Str("address", addr.Key()).Msg("Failed to persist status cache")
	}
	online.Week = week

	return online
}

func (n Normalizer) normalizeFailure(addr protocol.Address, pref protocol.Preference, probeErr error) ServerStatus {
	entry, err := n.Cache.Lookup(addr.Key())
	if err != nil {
		log.Error().Err(err).Str("address", addr.Key()).Msg("Failed to read status cache")
		entry = nil
	}

	if entry == nil {
		return Unreachable{Error: protocol.FailureText(probeErr)}
	}

	offline := Offline{Week: entry.Week}
	switch {
	case entry.Favicon != "" && !entry.Generated:
		offline.Favicon = ServerFavicon(entry.Favicon)
	case entry.Favicon != "":
		offline.Favicon = GeneratedFavicon(entry.Favicon)
	default:
		offline.Favicon = GeneratedFavicon(n.icon(pref, addr))
	}

	return offline
}

// icon renders the deterministic identicon for an address. The seed folds
// in the protocol so Java and Bedrock views of one host differ, matching
// how the icons were generated historically.
func (n Normalizer) icon(pref protocol.Preference, addr protocol.Address) string {
	if n.GenerateIcon == nil {
		return ""
	}
	return n.GenerateIcon(pref.String() + addr.Key())
}
