package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(cfg RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(cfg))
	router.POST("/api/v1/ai/generate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	router := rateLimitedRouter(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         3,
		KeyFunc:           func(c *gin.Context) string { return "user-1" },
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{
		http.StatusOK, http.StatusOK, http.StatusOK,
		http.StatusTooManyRequests,
	}, codes)
}

func TestRateLimiter_KeysAreIsolated(t *testing.T) {
	router := rateLimitedRouter(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		// Key by caller IP header so two callers hold separate buckets
		KeyFunc: func(c *gin.Context) string { return c.GetHeader("X-Real-IP") },
	})

	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", nil)
		req.Header.Set("X-Real-IP", ip)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "first request for %s", ip)
	}
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	now := time.Now()
	bucket := &tokenBucket{tokens: 0, refilled: now}

	assert.False(t, bucket.take(now, 5, 5), "empty bucket rejects")
	assert.True(t, bucket.take(now.Add(200*time.Millisecond), 5, 5), "refill grants a token")
	assert.False(t, bucket.take(now.Add(200*time.Millisecond), 5, 5), "token already spent")
}

func TestTokenBucket_CapsAtBurst(t *testing.T) {
	now := time.Now()
	bucket := &tokenBucket{tokens: 2, refilled: now}

	// A long idle period must not accumulate beyond the burst size
	later := now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, bucket.take(later, 1, 3), "token %d within burst", i+1)
	}
	assert.False(t, bucket.take(later, 1, 3), "burst exhausted")
}
