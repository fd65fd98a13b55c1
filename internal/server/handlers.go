package server

import (
	"encoding/json"
	"net/http"

	"github.com/craftstat/craftstat/internal/protocol"
	"github.com/craftstat/craftstat/internal/status"
	"github.com/craftstat/craftstat/internal/vars"
)

// handleStatus probes the requested server and returns its unified status.
// Query params: ?address=play.example.com[:port]&protocol=auto|java|bedrock
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, "Missing address", http.StatusBadRequest)
		return
	}
	if len(address) > s.maxAddrLen {
		http.Error(w, "Address too long", http.StatusBadRequest)
		return
	}

	pref := protocol.Auto
	if p := r.URL.Query().Get("protocol"); p != "" {
		var err error
		pref, err = protocol.ParsePreference(p)
		if err != nil {
			http.Error(w, "Invalid protocol", http.StatusBadRequest)
			return
		}
	}

	alwaysIdenticon := s.alwaysIdenticon || r.URL.Query().Get("identicon") == "always"

	result := s.probes.GetStatus(r.Context(), address, pref, alwaysIdenticon)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status.Render(result))
}

// handleHealth reports liveness and build metadata.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"build":  vars.Info(),
	})
}
