// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/metrics"
)

// unreachableRedis returns a client whose server has already gone away so
// the limiter must fall back to its local buckets.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_LocalFallbackRejectsBurst(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Name:  "test-burst",
		Limit: PerMinute(1, 1),
	})
	h := rl.Handler(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/segmentation/run", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := send()
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "RATE_LIMITED")

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("test-burst")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.RateLimitFallbacks.WithLabelValues("test-burst")), 1e-9)
}

func TestRateLimiter_SkipsPreflight(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 1),
	})
	h := rl.Handler(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodOptions, "/v1/segmentation/run", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyByUserAndRoute(t *testing.T) {
	keyFn := KeyByUserAndRoute("segmentation-run")

	anon := httptest.NewRequest(http.MethodPost, "/", nil)
	anon.RemoteAddr = "198.51.100.2:443"
	assert.Equal(t, "segmenter:ratelimit:ip:198.51.100.2:route:segmentation-run", keyFn(anon))

	authed := anon.WithContext(WithClaims(anon.Context(), &AccessTokenClaims{
		UserID: "u1",
		Role:   RoleUser,
	}))
	assert.Equal(t, "segmenter:ratelimit:user:u1:route:segmentation-run", keyFn(authed))
}

func TestKeyByIP_PrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.9")

	assert.Equal(t, "segmenter:ratelimit:ip:192.0.2.9", KeyByIP(req))
}
