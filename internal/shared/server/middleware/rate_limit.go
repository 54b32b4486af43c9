package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultRateLimitGroup = "DEFAULT"
)

// RateLimitRule allows Burst requests immediately and refills at Rate
// requests per second.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig wires rules to a limiter. When Counter is set the limit is
// enforced through a shared fixed-window counter (one store for every
// process); otherwise a per-process token bucket is used.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
	Counter      CounterStore
}

// CounterStore counts requests per key within a window. Implementations must
// be safe for concurrent use.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, retryAfter time.Duration, err error)
}

// RateLimiter is a mutex-guarded token bucket keyed by principal and group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		key := principal + "|" + group

		allowed, retryAfter := allow(c.Request.Context(), cfg, key, rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": retryAfterMs,
		})
		c.Abort()
	}
}

func allow(ctx context.Context, cfg RateLimitConfig, key string, rule RateLimitRule) (bool, time.Duration) {
	if cfg.Counter != nil {
		ok, retryAfter, err := allowCounted(ctx, cfg.Counter, key, rule)
		if err == nil {
			return ok, retryAfter
		}
		// Counter store unreachable: fall through to the local bucket so a
		// degraded store never blocks traffic outright.
	}
	return cfg.Limiter.Allow(key, rule)
}

func allowCounted(ctx context.Context, counter CounterStore, key string, rule RateLimitRule) (bool, time.Duration, error) {
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0, nil
	}
	window := time.Duration(float64(rule.Burst)/rule.Rate*1000.0) * time.Millisecond
	if window <= 0 {
		window = time.Second
	}
	count, retryAfter, err := counter.Incr(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	if count <= int64(rule.Burst) {
		return true, 0, nil
	}
	if retryAfter <= 0 {
		retryAfter = window
	}
	return false, retryAfter, nil
}

func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{
			tokens: float64(rule.Burst),
			last:   now,
		}
		l.buckets[key] = bucket
	}
	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens -= 1
		return true, 0
	}
	needed := 1 - bucket.tokens
	waitSec := needed / rule.Rate
	if waitSec < 0 {
		waitSec = 0
	}
	retryAfter := time.Duration(math.Ceil(waitSec*1000.0)) * time.Millisecond
	return false, retryAfter
}
