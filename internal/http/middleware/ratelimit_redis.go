package middleware

import (
	"strconv"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RedisRateLimit implements a fixed-window limiter using Redis INCR/EXPIRE,
// shared across instances. key format: rl:<window_seconds>:<identifier>
//
// With no client, or when Redis errors, requests go through the in-process
// token bucket instead so the API stays limited and available.
func RedisRateLimit(client *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := LocalRateLimit(maxRequests, window)
	if client == nil {
		return fallback
	}

	prefix := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := prefix + c.ClientIP()

		val, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.WithContext(ctx).Warn("rate limiter redis error", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			fallback(c)
			return
		}
		if val == 1 {
			client.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			abortRateLimited(c)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(maxRequests)-val, 10))

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
