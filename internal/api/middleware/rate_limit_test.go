package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(l *IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func loginFrom(r *gin.Engine, addr string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIPRateLimiterRejectsAfterBurst(t *testing.T) {
	const burst = 3
	r := newLimitedRouter(NewIPRateLimiter(0.001, burst))

	for i := 0; i < burst; i++ {
		assert.Equal(t, http.StatusOK, loginFrom(r, "10.0.0.1:1234"), "attempt %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(r, "10.0.0.1:1234"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, loginFrom(r, "10.0.0.2:1234"))
}

func TestIPRateLimiterSweepsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.limiter("10.0.0.1")
	l.limiter("10.0.0.2")
	assert.Len(t, l.visitors, 2)

	now = now.Add(DefaultLimiterIdleTTL / 2)
	l.limiter("10.0.0.2")

	now = now.Add(DefaultLimiterIdleTTL / 2)
	l.limiter("10.0.0.3")
	assert.Len(t, l.visitors, 2)
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}
