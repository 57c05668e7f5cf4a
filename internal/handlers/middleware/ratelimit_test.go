package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	t.Run("burst then deny", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})

		require.True(t, rl.Allow("10.0.0.1"), "first request should pass")
		require.True(t, rl.Allow("10.0.0.1"), "second request should pass")
		require.False(t, rl.Allow("10.0.0.1"), "third request should be denied")
	})

	t.Run("clients are independent", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

		require.True(t, rl.Allow("10.0.0.1"))
		require.False(t, rl.Allow("10.0.0.1"), "first client should be exhausted")
		require.True(t, rl.Allow("10.0.0.2"), "second client should have its own bucket")
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(rl.Middleware(h))
	defer srv.Close()

	// All httptest requests come from the same client address
	resp, err := http.Get(srv.URL + "/login")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode, "first request should pass")

	resp, err = http.Get(srv.URL + "/login")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "second request should be limited")
	require.JSONEq(t, `{
			"error": "service_error",
			"message": "Too many requests"
		}`,
		string(body),
	)
}
