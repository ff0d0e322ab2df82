package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_Handler(t *testing.T) {
	limiter := NewIPRateLimiter(60, 2)
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5003"))
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	limiter := NewIPRateLimiter(10, 1)
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("10.0.0.1")
	now = now.Add(5 * time.Minute)
	limiter.Allow("10.0.0.2")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.visitors, 1)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::ffff:10.0.0.5]:443"
	assert.Equal(t, "::ffff:10.0.0.5", ClientIP(req))

	req.RemoteAddr = "10.0.0.9"
	assert.Equal(t, "10.0.0.9", ClientIP(req))
}
