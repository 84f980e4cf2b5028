package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eazyparking/parking-bookings/internal/http/middleware"
)

func setupLimiter(t *testing.T, requests int, window time.Duration) (*miniredis.Miniredis, http.Handler) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	rl := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
		Requests: requests,
		Window:   window,
		KeyFunc:  middleware.IPKeyFunc,
	})
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	return mr, handler
}

func hit(handler http.Handler, ip string) int {
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = ip + ":51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	_, handler := setupLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusNoContent, hit(handler, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusNoContent, hit(handler, "10.0.0.2"))
}

func TestRateLimiter_WindowRollsOverUnderRetries(t *testing.T) {
	mr, handler := setupLimiter(t, 2, time.Minute)

	require.Equal(t, http.StatusNoContent, hit(handler, "10.0.0.1"))
	require.Equal(t, http.StatusNoContent, hit(handler, "10.0.0.1"))

	// A client hammering past the limit must not push the window out:
	// the key's expiry is pinned to the window's first hit.
	for i := 0; i < 5; i++ {
		mr.FastForward(10 * time.Second)
		assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1"))
	}

	// Once the original window closes the client is let back in, even
	// though it never stopped retrying.
	mr.FastForward(15 * time.Second)
	assert.Equal(t, http.StatusNoContent, hit(handler, "10.0.0.1"))
}
