package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/types"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	maxLimiterEntries = 10000
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiters holds one token bucket per key. Idle buckets are evicted
// when the table grows past maxLimiterEntries.
type keyedLimiters struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	entries map[string]*limiterEntry
}

func (k *keyedLimiters) get(key string, now time.Time) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if e, ok := k.entries[key]; ok {
		e.lastSeen = now

		return e.limiter
	}

	if len(k.entries) >= maxLimiterEntries {
		for key, e := range k.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(k.entries, key)
			}
		}
	}

	e := &limiterEntry{limiter: rate.NewLimiter(k.rps, k.burst), lastSeen: now}
	k.entries[key] = e

	return e.limiter
}

// RateLimitMiddleware rejects requests over the configured rate with 429 and
// a Retry-After header. Key selects the bucket: global, ip, or
// header:<Header-Name> falling back to the client IP.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := max(cfg.Burst, 1)
	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))

	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

		return func(c *gin.Context) {
			if !allow(c, limiter) {
				return
			}

			c.Next()
		}
	}

	limiters := &keyedLimiters{rps: rate.Limit(cfg.RPS), burst: burst, entries: map[string]*limiterEntry{}}

	return func(c *gin.Context) {
		var key string

		if h, ok := strings.CutPrefix(keyMode, "header:"); ok {
			key = c.GetHeader(h)
		}

		if key == "" {
			key = clientIP(c)
		}

		if key == "" {
			key = "unknown"
		}

		if !allow(c, limiters.get(key, time.Now())) {
			return
		}

		c.Next()
	}
}

// allow consumes a token or aborts with 429.
func allow(c *gin.Context, limiter *rate.Limiter) bool {
	res := limiter.Reserve()
	if res.OK() && res.Delay() == 0 {
		return true
	}

	wait := res.Delay()
	res.Cancel()

	c.Header("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait.Seconds())))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		types.Fail(types.CodeRateLimited, "rate limit exceeded, please try again later"))

	return false
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
