package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/portalgw/internal/logging"
	"github.com/opencampus/portalgw/internal/observability"
	"github.com/opencampus/portalgw/internal/ratelimit"
)

// Logging returns the outermost middleware. It attaches client details
// to the request context and emits exactly one outcome record per
// request once the rest of the chain has finished: http level normally,
// error level with the stack when the handler panicked.
func Logging(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		info := &logging.RequestInfo{
			IP:        ratelimit.GetClientIP(c.Request),
			UserAgent: c.Request.UserAgent(),
			RequestID: observability.RequestIDFromContext(c.Request.Context()),
		}
		ctx := logging.ContextWithRequestInfo(c.Request.Context(), info)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		metadata := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"size":        c.Writer.Size(),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			metadata["query"] = query
		}

		if v, ok := c.Get(panicKey); ok {
			if rec, ok := v.(panicRecord); ok {
				metadata["panic"] = rec.Value
				metadata["stack"] = rec.Stack
				logger.Error(c.Request.Context(), "request panicked", metadata)
				return
			}
		}

		logger.HTTP(c.Request.Context(), "request completed", metadata)
	}
}
