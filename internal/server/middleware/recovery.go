package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// panicKey carries the recovered panic to the outcome logger, which
// owns the single per-request log record.
const panicKey = "portalgw.panic"

type panicRecord struct {
	Value string
	Stack string
}

// Recovery returns a middleware that converts panics into 500
// responses. The panic value and stack trace are stashed on the gin
// context for the outcome logger, which emits the error-level record.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				c.Set(panicKey, panicRecord{
					Value: fmt.Sprintf("%v", err),
					Stack: string(debug.Stack()),
				})

				recordPanicRecovered()

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "internal server error",
					},
				})
			}
		}()

		c.Next()
	}
}
