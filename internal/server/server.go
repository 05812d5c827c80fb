// Package server wires the portal gateway's HTTP surface: the fixed
// middleware chain, the login endpoint, the protected API routes and
// the operational endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencampus/portalgw/internal/auth"
	"github.com/opencampus/portalgw/internal/config"
	"github.com/opencampus/portalgw/internal/logging"
	"github.com/opencampus/portalgw/internal/observability"
	"github.com/opencampus/portalgw/internal/ratelimit"
	"github.com/opencampus/portalgw/internal/server/middleware"
	"github.com/opencampus/portalgw/internal/token"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Pinger reports whether a dependency is reachable. The readiness
// endpoint probes each registered pinger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server needs.
type Deps struct {
	Config   *config.PortalConfig
	Logger   *logging.Logger
	Codec    *token.Codec
	Limiter  ratelimit.Limiter
	Accounts *auth.AccountStore

	// ProcessLogger receives server lifecycle events.
	ProcessLogger observability.Logger

	// ReadinessProbes are checked by GET /readyz, keyed by name.
	ReadinessProbes map[string]Pinger
}

// Server is the portal gateway HTTP server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	deps       Deps
	limiterMu  sync.RWMutex
	limiter    ratelimit.Limiter
	loginGuard *loginGuard
	mu         sync.RWMutex
	running    bool
}

// New creates the server and registers all routes.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if deps.ProcessLogger == nil {
		deps.ProcessLogger = observability.NopLogger()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewNoopLimiter()
	}
	if deps.Accounts == nil {
		deps.Accounts = auth.NewAccountStore(nil)
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:  gin.New(),
		deps:    deps,
		limiter: deps.Limiter,
		loginGuard: newLoginGuard(
			deps.Config.Auth.LoginRate.RPS,
			deps.Config.Auth.LoginRate.Burst,
		),
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes installs the middleware chain and route handlers. The
// chain order is fixed: request ID, outcome logging, metrics, panic
// recovery; protected routes then add the auth gate followed by the
// rate limiter.
func (s *Server) setupRoutes() {
	s.engine.Use(
		middleware.RequestID(),
		middleware.Logging(s.deps.Logger),
		middleware.Metrics(),
		middleware.Recovery(),
	)

	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/readyz", s.handleReadyz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/api/auth/login", s.handleLogin)

	api := s.engine.Group("/api")
	api.Use(
		middleware.Auth(s.deps.Codec, s.deps.Logger),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: s,
			Logger:  s.deps.Logger,
		}),
	)

	api.GET("/me", s.handleMe)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRoles("admin"))
	admin.GET("/stats", s.handleAdminStats)
}

// Allow implements ratelimit.Limiter by delegating to the current
// limiter, so SetLimiter swaps take effect on in-flight traffic.
func (s *Server) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	s.limiterMu.RLock()
	limiter := s.limiter
	s.limiterMu.RUnlock()
	return limiter.Allow(ctx, key)
}

// SetLimiter replaces the rate limiter, e.g. after a config reload.
func (s *Server) SetLimiter(limiter ratelimit.Limiter) {
	if limiter == nil {
		limiter = ratelimit.NewNoopLimiter()
	}
	s.limiterMu.Lock()
	s.limiter = limiter
	s.limiterMu.Unlock()
}

// Engine returns the underlying gin engine. Used by tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server until it is stopped.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	cfg := s.deps.Config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
		IdleTimeout:  cfg.IdleTimeout.Duration(),
	}

	s.running = true
	s.mu.Unlock()

	s.deps.ProcessLogger.Info("starting HTTP server",
		observability.String("address", addr),
		observability.Duration("readTimeout", cfg.ReadTimeout.Duration()),
		observability.Duration("writeTimeout", cfg.WriteTimeout.Duration()),
	)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop shuts the server down gracefully, draining in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.deps.ProcessLogger.Info("stopping HTTP server")

	s.loginGuard.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.deps.ProcessLogger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
