package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetRealIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"direct", "203.0.113.7:51234", nil, false, "203.0.113.7"},
		{"noPort", "203.0.113.7", nil, false, "203.0.113.7"},
		{
			"xffIgnoredWithoutTrust",
			"203.0.113.7:51234",
			map[string]string{"X-Forwarded-For": "198.51.100.1"},
			false,
			"203.0.113.7",
		},
		{
			"xffTrusted",
			"203.0.113.7:51234",
			map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"},
			true,
			"198.51.100.1",
		},
		{
			"cloudflareWins",
			"203.0.113.7:51234",
			map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Forwarded-For": "198.51.100.1"},
			true,
			"198.51.100.2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/status", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tc.want, GetRealIP(r, tc.trustProxy))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := &Server{rateCount: 2, rateWindow: time.Minute}

	handler := s.RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remoteAddr string) int {
		r := httptest.NewRequest(http.MethodGet, "/status", nil)
		r.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.7:1111"))
	assert.Equal(t, http.StatusOK, do("203.0.113.7:1112"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.7:1113"))

	// A different client gets its own budget.
	assert.Equal(t, http.StatusOK, do("198.51.100.9:2222"))
}
