package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"microwallet/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	redisOpTimeout   = 500 * time.Millisecond
	maxLocalLimiters = 10000
)

// RateLimiter is a fixed window limiter on Redis INCR/EXPIRE, shared by all
// replicas. Without Redis, or when a Redis call fails, it falls back to an
// in-process token bucket per key.
type RateLimiter struct {
	redis *redis.Client

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter accepts a nil client for the in-process mode
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{redis: client, local: make(map[string]*rate.Limiter)}
}

// PerIP limits requests by client IP.
// key format: rl:<scope>:<window_seconds>:<ip>
func (rl *RateLimiter) PerIP(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.handle(c, scope, c.ClientIP(), maxRequests, window)
	}
}

// PerUser limits requests by authenticated user. JWT must run first.
func (rl *RateLimiter) PerUser(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get(ContextUserID)
		id, isInt := userID.(int64)
		if !ok || !isInt {
			abortUnauthorized(c)
			return
		}
		rl.handle(c, scope, "u"+strconv.FormatInt(id, 10), maxRequests, window)
	}
}

func (rl *RateLimiter) handle(c *gin.Context, scope, ident string, maxRequests int, window time.Duration) {
	key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
	allowed, remaining := rl.allow(c.Request.Context(), key, maxRequests, window)

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

	if !allowed {
		RLBlocked.WithLabelValues(scope).Inc()
		c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests"})
		return
	}

	RLRequests.WithLabelValues(scope).Inc()
	c.Next()
}

func (rl *RateLimiter) allow(ctx context.Context, key string, maxRequests int, window time.Duration) (bool, int64) {
	if rl.redis != nil {
		ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
		defer cancel()

		val, err := rl.redis.Incr(ctx, key).Result()
		if err == nil {
			if val == 1 {
				rl.redis.Expire(ctx, key, window)
			}
			return val <= int64(maxRequests), max(0, int64(maxRequests)-val)
		}
		logger.Warn("rate limiter redis error, using local limiter", "error", err)
	}

	lim := rl.limiter(key, maxRequests, window)
	ok := lim.Allow()
	return ok, max(0, int64(lim.Tokens()))
}

func (rl *RateLimiter) limiter(key string, maxRequests int, window time.Duration) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim, ok := rl.local[key]
	if !ok {
		if len(rl.local) >= maxLocalLimiters {
			rl.local = make(map[string]*rate.Limiter)
		}
		every := window / time.Duration(max(1, maxRequests))
		lim = rate.NewLimiter(rate.Every(every), maxRequests)
		rl.local[key] = lim
	}
	return lim
}
