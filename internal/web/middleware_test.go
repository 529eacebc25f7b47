package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/dayboard/internal/core/config"
)

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"https://*.example.com", "http://localhost:*"}
	})

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed", method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusOK, wantAllow: "https://app.example.com"},
		{name: "localhost port", method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantAllow: "http://localhost:5173"},
		{name: "other origin", method: http.MethodGet, origin: "https://evil.test", wantStatus: http.StatusOK},
		{name: "preflight allowed", method: http.MethodOptions, origin: "https://app.example.com", wantStatus: http.StatusNoContent, wantAllow: "https://app.example.com"},
		{name: "preflight denied", method: http.MethodOptions, origin: "https://evil.test", wantStatus: http.StatusForbidden},
		{name: "same origin", method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/healthz", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	assert.False(t, originAllowed(nil, "https://a.example.com"))
	assert.True(t, originAllowed([]string{"https://*.example.com"}, "https://a.example.com"))
	assert.False(t, originAllowed([]string{"https://*.example.com"}, "https://a.b.example.org"))
}
