// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxggeorgia/gxg-sub001/internal/config"
)

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(newMiniRedis(t), RateLimitConfig{
		Name:  "login",
		Limit: PerMinute(2, 2),
	})
	h := rl.Handler(okHandler)

	statuses := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		r.RemoteAddr = "203.0.113.7:5555"
		h.ServeHTTP(rec, r)
		statuses = append(statuses, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
		}
	}

	assert.Equal(t, []int{
		http.StatusNoContent,
		http.StatusNoContent,
		http.StatusTooManyRequests,
	}, statuses)
}

func TestRateLimiter_FallsBackWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRateLimiter(rdb, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Hour},
	})
	h := rl.Handler(okHandler)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestGlobalRateLimiter_KeysByClientIP(t *testing.T) {
	rl := NewGlobalRateLimiter(newMiniRedis(t), config.RateLimitConfig{
		Requests: 1,
		Burst:    1,
		Window:   time.Hour,
	})
	h := rl.Handler(okHandler)

	send := func(addr, path string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = addr
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("203.0.113.9:1000", "/v1/me"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.9:2000", "/v1/profiles"))
	assert.Equal(t, http.StatusNoContent, send("203.0.113.10:1000", "/v1/me"))
}

func TestKeyFuncs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/admin/principals/123/logout", nil)
	r.RemoteAddr = "198.51.100.1:4000"

	assert.Equal(t, "ip:198.51.100.1", KeyByIP(r))
	assert.Equal(t,
		"ip:198.51.100.1:endpoint:/v1/admin/principals/{id}/logout",
		KeyByIPAndEndpoint(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.44")
	assert.Equal(t, "ip:192.0.2.44", KeyByIP(r))
}

func TestLocalLimiter_RejectsInvalidLimit(t *testing.T) {
	l := &localLimiter{}
	_, err := l.allow("k", redis_rate.Limit{Rate: 0, Period: time.Minute})
	require.Error(t, err)
}
