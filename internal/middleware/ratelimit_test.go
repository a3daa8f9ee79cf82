package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestLimiter(now *time.Time) *rateLimiter {
	return &rateLimiter{
		limit:         rate.Limit(1),
		burst:         1,
		idle:          10 * time.Second,
		visitors:      make(map[string]*visitor),
		sweepInterval: 10 * time.Second,
		now: func() time.Time {
			return *now
		},
	}
}

func TestRateLimiterHandle_BlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", nil)
	limiter.handle(c1)
	require.False(t, c1.IsAborted())

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", nil)
	limiter.handle(c2)
	require.True(t, c2.IsAborted())
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	now = now.Add(time.Second)
	c3, _ := gin.CreateTestContext(httptest.NewRecorder())
	c3.Request = httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", nil)
	limiter.handle(c3)
	require.False(t, c3.IsAborted())
}

func TestRateLimiterCleanupExpiredLocked_RemovesIdleEntries(t *testing.T) {
	base := time.Now()
	limiter := newTestLimiter(&base)
	limiter.visitors["expired"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-20 * time.Second)}
	limiter.visitors["active"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-2 * time.Second)}

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(base)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.visitors, "expired")
	require.Contains(t, limiter.visitors, "active")
	require.False(t, limiter.lastSweep.IsZero())
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := RateLimit(0, 0)
	for i := 0; i < 5; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/otp/verify", nil)
		handler(c)
		require.False(t, c.IsAborted())
	}
}
