package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/portalgw/internal/auth"
	"github.com/opencampus/portalgw/internal/ratelimit"
	"github.com/opencampus/portalgw/internal/token"
)

var startTime = time.Now()

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	clientIP := ratelimit.GetClientIP(c.Request)
	if !s.loginGuard.Allow(clientIP) {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RATE_LIMIT_EXCEEDED",
				"message": "too many login attempts, slow down",
			},
		})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "email and password are required",
			},
		})
		return
	}

	account, err := s.deps.Accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		s.deps.Logger.Warn(c.Request.Context(), "login failed", map[string]any{
			"email": req.Email,
			"ip":    clientIP,
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "invalid email or password",
			},
		})
		return
	}

	ttl := s.deps.Config.Auth.TokenTTL.Duration()
	signed, err := s.deps.Codec.Issue(&token.Claims{
		UserID: account.UserID,
		Email:  account.Email,
		Role:   account.Role,
	}, ttl)
	if err != nil {
		s.deps.Logger.Error(c.Request.Context(), "token issuance failed", map[string]any{
			"user_id": account.UserID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "could not issue token",
			},
		})
		return
	}

	s.deps.Logger.Info(c.Request.Context(), "user logged in", map[string]any{
		"user_id": account.UserID,
		"role":    account.Role,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":      signed,
			"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
			"user": gin.H{
				"id":    account.UserID,
				"email": account.Email,
				"role":  account.Role,
			},
		},
	})
}

func (s *Server) handleMe(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		// The auth gate guarantees an identity here; defend anyway.
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "authentication required",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":         identity.UserID,
			"email":      identity.Email,
			"role":       identity.Role,
			"issued_at":  identity.IssuedAt.UTC().Format(time.RFC3339),
			"expires_at": identity.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAdminStats(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"uptime_seconds":  int64(time.Since(startTime).Seconds()),
			"goroutines":      runtime.NumGoroutine(),
			"heap_alloc":      mem.HeapAlloc,
			"accounts":        s.deps.Accounts.Len(),
			"forward_level":   s.deps.Logger.ForwardLevel().String(),
			"ratelimit_limit": s.deps.Config.RateLimit.Default.Limit,
		},
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReadyz probes each registered dependency. Any failing probe
// makes the whole endpoint report 503.
func (s *Server) handleReadyz(c *gin.Context) {
	checks := make(gin.H, len(s.deps.ReadinessProbes))
	healthy := true

	for name, probe := range s.deps.ReadinessProbes {
		if err := probe.Ping(c.Request.Context()); err != nil {
			checks[name] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
			continue
		}
		checks[name] = gin.H{"status": "up"}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
