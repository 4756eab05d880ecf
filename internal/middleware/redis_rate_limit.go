package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/cache"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"go.uber.org/zap"
)

const redisRateLimitTimeout = 500 * time.Millisecond

// RateLimit returns a fixed-window limiter shared across instances through
// Redis. Requests fall back to the in-memory token bucket whenever Redis is
// not configured or a call fails.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	cfg := config.withDefaults()
	fallback := NewMemoryRateLimiter(cfg)

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)

		if rc := cache.GetRedisClient(); rc != nil {
			allowed, wait, err := redisAllow(c.Request.Context(), rc, cfg, key)
			if err == nil {
				if !allowed {
					logger.Log.Warn("Rate limit exceeded",
						logger.WithIP(c.ClientIP()),
						zap.String("scope", cfg.Scope),
						zap.Int("limit", cfg.Limit),
					)
					rejectRateLimited(c, cfg, wait)
					return
				}
				c.Next()
				return
			}
			logger.Log.Warn("Redis rate limiter failed, using in-memory limiter",
				zap.String("scope", cfg.Scope),
				zap.Error(err),
			)
		}

		if ok, wait := fallback.Allow(key); !ok {
			rejectRateLimited(c, cfg, wait)
			return
		}
		c.Next()
	}
}

// redisAllow counts the request in the current window.
func redisAllow(ctx context.Context, rc *cache.RedisClient, cfg RateLimitConfig, key string) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, redisRateLimitTimeout)
	defer cancel()

	count, left, err := rc.CountInWindow(ctx, cfg.Scope, key, cfg.Window)
	if err != nil {
		return false, 0, err
	}
	if count <= int64(cfg.Limit) {
		return true, 0, nil
	}
	return false, left, nil
}
