package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	pkgredis "github.com/novatix/novatix-backend/pkg/redis"
	"github.com/novatix/novatix-backend/pkg/response"
)

// RateLimitConfig configures per-caller token bucket limiting. With Redis the
// bucket is shared across instances; without it each instance keeps its own.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained refill rate per key
	RequestsPerSecond int
	// BurstSize is the bucket capacity
	BurstSize int
	UseRedis  bool
	// RedisClient is required when UseRedis is set
	RedisClient *pkgredis.Client
	// KeyPrefix namespaces Redis keys, e.g. "ratelimit:ai:"
	KeyPrefix string
	// KeyFunc derives the rate limit key from the request. Defaults to
	// the authenticated user ID, falling back to client IP.
	KeyFunc func(c *gin.Context) string
}

func defaultKeyFunc(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok && userID != "" {
		return userID
	}
	return c.ClientIP()
}

type tokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	refilled time.Time
}

// take refills the bucket for elapsed time, then spends one token if available
func (b *tokenBucket) take(now time.Time, rate float64, burst float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.refilled).Seconds() * rate
	if b.tokens > burst {
		b.tokens = burst
	}
	b.refilled = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// localLimiter keeps one token bucket per key in process memory
type localLimiter struct {
	rate    float64
	burst   float64
	buckets sync.Map
	stop    chan struct{}
}

func newLocalLimiter(cfg RateLimitConfig) *localLimiter {
	l := &localLimiter{
		rate:  float64(cfg.RequestsPerSecond),
		burst: float64(cfg.BurstSize),
		stop:  make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *localLimiter) allow(key string) bool {
	now := time.Now()
	bucket, _ := l.buckets.LoadOrStore(key, &tokenBucket{tokens: l.burst, refilled: now})
	return bucket.(*tokenBucket).take(now, l.rate, l.burst)
}

// janitor drops buckets idle for over a minute
func (l *localLimiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Minute)
			l.buckets.Range(func(key, value interface{}) bool {
				b := value.(*tokenBucket)
				b.mu.Lock()
				stale := b.refilled.Before(cutoff)
				b.mu.Unlock()
				if stale {
					l.buckets.Delete(key)
				}
				return true
			})
		case <-l.stop:
			return
		}
	}
}

func (l *localLimiter) close() {
	close(l.stop)
}

// tokenBucketScript runs the same refill-then-spend step atomically in Redis
// so every instance sees one shared bucket per key
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "refilled")
local tokens = tonumber(state[1]) or burst
local refilled = tonumber(state[2]) or now

tokens = math.min(burst, tokens + (now - refilled) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "refilled", now)
redis.call("EXPIRE", key, 60)
return allowed
`

type redisLimiter struct {
	client *pkgredis.Client
	prefix string
	rate   float64
	burst  float64
}

func (l *redisLimiter) allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	result := l.client.Eval(ctx, tokenBucketScript, []string{l.prefix + key}, l.rate, l.burst, now)
	if result.Err() != nil {
		return false, result.Err()
	}
	allowed, err := result.Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// RateLimiter limits requests per caller using a token bucket
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = defaultKeyFunc
	}

	var local *localLimiter
	var shared *redisLimiter
	if config.UseRedis && config.RedisClient != nil {
		shared = &redisLimiter{
			client: config.RedisClient,
			prefix: config.KeyPrefix,
			rate:   float64(config.RequestsPerSecond),
			burst:  float64(config.BurstSize),
		}
	} else {
		local = newLocalLimiter(config)
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		var allowed bool
		if shared != nil {
			var err error
			allowed, err = shared.allow(c.Request.Context(), key)
			if err != nil {
				// Fail open: an unreachable Redis must not take the API down
				allowed = true
			}
		} else {
			allowed = local.allow(key)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.TooManyRequests("Rate limit exceeded. Please retry shortly."))
			return
		}

		c.Next()
	}
}
