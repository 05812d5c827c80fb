package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/portalgw/internal/auth"
	"github.com/opencampus/portalgw/internal/logging"
	"github.com/opencampus/portalgw/internal/observability"
	"github.com/opencampus/portalgw/internal/ratelimit"
	"github.com/opencampus/portalgw/internal/ratelimit/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopPipeline() *logging.Logger {
	return logging.New(observability.NopLogger())
}

func TestRequestID_Generated(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())

	var seen string
	engine.GET("/", func(c *gin.Context) {
		seen = observability.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "caller-supplied", w.Header().Get(RequestIDHeader))
}

func TestRateLimit_SkipPaths(t *testing.T) {
	limiter := ratelimit.NewWindowLimiter(store.NewMemoryStore(), &ratelimit.Config{
		Limit:  1,
		Window: time.Minute,
	}, nil)

	engine := gin.New()
	engine.Use(RateLimit(RateLimitConfig{
		Limiter:   limiter,
		Logger:    nopPipeline(),
		SkipPaths: []string{"/skip"},
	}))
	engine.GET("/skip", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/skip", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_SubSecondRetryAfterRoundsUp(t *testing.T) {
	limiter := ratelimit.NewWindowLimiter(store.NewMemoryStore(), &ratelimit.Config{
		Limit:  1,
		Window: 500 * time.Millisecond,
	}, nil)

	engine := gin.New()
	engine.Use(RateLimit(RateLimitConfig{Limiter: limiter, Logger: nopPipeline()}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequireRoles_NoIdentity(t *testing.T) {
	engine := gin.New()
	engine.GET("/", RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles_AnyOf(t *testing.T) {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		identity := &auth.Identity{UserID: "u-1", Role: "faculty"}
		ctx := auth.ContextWithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	engine.GET("/", RequireRoles("admin", "faculty"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string) (*ratelimit.Result, error) {
	return nil, errors.New("store down")
}

func TestRateLimit_FailOpenWithoutLogger(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimit(RateLimitConfig{Limiter: erroringLimiter{}}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
