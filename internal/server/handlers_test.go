package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/craftstat/craftstat/internal/cache"
	"github.com/craftstat/craftstat/internal/config"
	"github.com/craftstat/craftstat/internal/probe"
	"github.com/craftstat/craftstat/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.MaxAddrLen = 253
	cfg.RateLimit.Count = 100
	cfg.RateLimit.Window = time.Minute

	probes := probe.New(cache.New(cache.NewMemoryStore()), probe.WithTimeout(time.Second))
	return New(probes, nil, cfg)
}

func TestHandleStatusValidation(t *testing.T) {
	s := testServer(t)

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"missingAddress", "/status", http.StatusBadRequest},
		{"tooLong", "/status?address=" + strings.Repeat("a", 300), http.StatusBadRequest},
		{"badProtocol", "/status?address=mc.example.com&protocol=pocket", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.handleStatus(w, httptest.NewRequest(http.MethodGet, tc.url, nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestHandleStatusUnreachable(t *testing.T) {
	s := testServer(t)

	// A port with nothing behind it.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	url := fmt.Sprintf("/status?address=127.0.0.1:%d&protocol=java", port)
	w := httptest.NewRecorder()
	s.handleStatus(w, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var rendered status.Rendered
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rendered))
	assert.Equal(t, "unreachable", rendered.State)
	assert.Equal(t, "connection refused", rendered.Error)
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "build")
}
