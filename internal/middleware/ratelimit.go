package middleware

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Scope namespaces the counters so route groups do not share budgets.
	Scope string
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket for a request. Defaults to the client IP.
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig allows 100 requests per minute per IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Scope:   "api",
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: clientKey,
	}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Scope:   "upload",
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: clientKey,
	}
}

// SearchRateLimitConfig returns limits for search endpoints
func SearchRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Scope:   "search",
		Limit:   60,
		Window:  time.Minute,
		KeyFunc: clientKey,
	}
}

func clientKey(c *gin.Context) string {
	return c.ClientIP()
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRateLimitConfig().Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientKey
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}
	return cfg
}

// sweepEvery is how many requests pass between idle bucket sweeps.
const sweepEvery = 1000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter keeps one token bucket per key. A bucket holds Limit
// tokens and refills Limit per Window.
type MemoryRateLimiter struct {
	config   RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
	requests atomic.Uint64
}

// NewMemoryRateLimiter creates an in-process limiter.
func NewMemoryRateLimiter(config RateLimitConfig) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		config:   config.withDefaults(),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow consumes a token for key. When the bucket is empty it returns false
// and how long until the next token.
func (rl *MemoryRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		every := rl.config.Window / time.Duration(rl.config.Limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.config.Limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep drops buckets idle for longer than one window. A dropped bucket
// would have been full again anyway.
func (rl *MemoryRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.Window)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (rl *MemoryRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// NewRateLimiter returns an in-memory rate limiting middleware.
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	rl := NewMemoryRateLimiter(config)
	cfg := rl.config

	return func(c *gin.Context) {
		if rl.requests.Add(1)%sweepEvery == 0 {
			rl.Sweep()
		}
		if ok, wait := rl.Allow(cfg.KeyFunc(c)); !ok {
			rejectRateLimited(c, cfg, wait)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, cfg RateLimitConfig, wait time.Duration) {
	retryAfter := int(math.Ceil(wait.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	path := c.FullPath()
	if path == "" {
		path = unmatchedRoute
	}
	metrics.RecordRateLimitExceeded(path, c.Request.Method)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	util.RespondWithAPIError(c, errors.RateLimited("rate limit exceeded").WithDetails(map[string]interface{}{
		"retryAfter": retryAfter,
	}))
}
