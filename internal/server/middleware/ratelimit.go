package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/portalgw/internal/logging"
	"github.com/opencampus/portalgw/internal/ratelimit"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Limiter is the rate limiter to use.
	Limiter ratelimit.Limiter

	// KeyFunc extracts the rate limit key from the request.
	KeyFunc ratelimit.KeyFunc

	// Logger for limiter faults and rejections.
	Logger *logging.Logger

	// SkipPaths is a list of paths to skip rate limiting.
	SkipPaths []string
}

// RateLimit returns a middleware that applies rate limiting after
// authentication. When the counter store is unreachable the request is
// admitted; an unavailable limiter must not take the portal down.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewNoopLimiter()
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ratelimit.IPPathKeyFunc
	}

	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c.Request)

		result, err := cfg.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn(c.Request.Context(), "rate limit check failed, admitting request", map[string]any{
					"key":   key,
					"error": err.Error(),
				})
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			if cfg.Logger != nil {
				cfg.Logger.Warn(c.Request.Context(), "rate limit exceeded", map[string]any{
					"key":   key,
					"limit": result.Limit,
					"path":  c.Request.URL.Path,
				})
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "RATE_LIMIT_EXCEEDED",
					"message":     "too many requests, slow down",
					"retry_after": retryAfter,
				},
			})
			return
		}

		c.Next()
	}
}
