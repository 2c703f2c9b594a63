package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"checkout-flow-api/logger"
)

func TestConfigForEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{path: "/process-payment", want: 10},
		{path: "/api/payments", want: 10},
		{path: "/api/ideal-payments?x=1", want: 10},
		{path: "/api/health", want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, configForEndpoint(tt.path).Requests)
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:1", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.3"}, remote: "1.1.1.1:1", want: "10.0.0.3"},
		{name: "cloudflare", headers: map[string]string{"CF-Connecting-IP": "10.0.0.4"}, remote: "1.1.1.1:1", want: "10.0.0.4"},
		{name: "remote addr", remote: "192.168.1.5:54321", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestRateLimitKeyIsPerRoute(t *testing.T) {
	a := httptest.NewRequest(http.MethodPost, "/process-payment", nil)
	b := httptest.NewRequest(http.MethodPost, "/api/payments", nil)
	a.RemoteAddr, b.RemoteAddr = "10.0.0.1:1", "10.0.0.1:2"

	assert.NotEqual(t, rateLimitKey(a), rateLimitKey(b))
	assert.Contains(t, rateLimitKey(a), "10.0.0.1")
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payments", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/success", nil))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestLoggingAssignsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var seen string
	h := Logging(zap.New(core).Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payments", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, int64(500), logs.All()[0].ContextMap()["status"])
	}
}

func TestLoggingKeepsIncomingRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core).Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Zero(t, logs.Len())
}
