package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/portalgw/internal/auth"
	"github.com/opencampus/portalgw/internal/logging"
	"github.com/opencampus/portalgw/internal/token"
)

// IdentityKey is the gin context key for the authenticated identity.
const IdentityKey = "identity"

// Auth returns the authentication gate. Requests without a valid
// Bearer token are rejected with 401 before the rate limiter or any
// handler runs.
func Auth(codec *token.Codec, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := auth.ExtractBearerToken(c.Request)
		if err != nil {
			abortUnauthorized(c, "missing or malformed Authorization header")
			return
		}

		claims, err := codec.Verify(tokenStr)
		if err != nil {
			logger.Debug(c.Request.Context(), "token verification failed", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		identity := &auth.Identity{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Role:      claims.Role,
			IssuedAt:  claims.IssuedAt,
			ExpiresAt: claims.ExpiresAt,
		}

		ctx := auth.ContextWithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)
		c.Set(IdentityKey, identity)

		// Outcome records for this request now carry the user.
		logging.SetUserID(ctx, identity.UserID)

		c.Next()
	}
}

// RequireRoles returns a middleware that rejects authenticated users
// lacking any of the given roles with 403.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		if !identity.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "insufficient role",
				},
			})
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="portal"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
