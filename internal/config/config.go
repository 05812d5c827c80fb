// Package config defines the portal gateway configuration model and
// its YAML loading, validation and hot-reload machinery.
package config

import (
	"time"
)

// Default configuration values.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultTokenTTL        = 24 * time.Hour
	DefaultRateLimit       = 100
	DefaultRateWindow      = time.Minute
	DefaultForwardLevel    = "error"
	DefaultLogLevel        = "info"
)

// PortalConfig is the root configuration document.
type PortalConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// AuthConfig configures token issuance and the login endpoint.
type AuthConfig struct {
	JWTSecret string          `yaml:"jwtSecret"`
	Issuer    string          `yaml:"issuer"`
	TokenTTL  Duration        `yaml:"tokenTTL"`
	LoginRate LoginRateConfig `yaml:"loginRate"`
	Accounts  []Account       `yaml:"accounts"`
}

// LoginRateConfig bounds login attempts per client.
type LoginRateConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Account is a portal user record. PasswordHash is a bcrypt hash.
type Account struct {
	UserID       string `yaml:"userId"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"passwordHash"`
}

// RedisConfig configures the rate limit counter store.
type RedisConfig struct {
	Addr        string   `yaml:"addr"`
	Password    string   `yaml:"password"`
	DB          int      `yaml:"db"`
	KeyPrefix   string   `yaml:"keyPrefix"`
	DialTimeout Duration `yaml:"dialTimeout"`
	ReadTimeout Duration `yaml:"readTimeout"`
	PoolSize    int      `yaml:"poolSize"`
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	Enabled bool            `yaml:"enabled"`
	Default RateRule        `yaml:"default"`
	Routes  []RouteRateRule `yaml:"routes"`
}

// RateRule is a request budget over a window.
type RateRule struct {
	Limit  int      `yaml:"limit"`
	Window Duration `yaml:"window"`
}

// RouteRateRule overrides the default budget for a path prefix.
type RouteRateRule struct {
	PathPrefix string   `yaml:"pathPrefix"`
	Limit      int      `yaml:"limit"`
	Window     Duration `yaml:"window"`
}

// LoggingConfig configures the log pipeline.
type LoggingConfig struct {
	Level           string `yaml:"level"`
	Format          string `yaml:"format"`
	ForwardLevel    string `yaml:"forwardLevel"`
	PostgresDSN     string `yaml:"postgresDsn"`
	TrackerEndpoint string `yaml:"trackerEndpoint"`
	AlertWebhook    string `yaml:"alertWebhook"`
}

// DefaultConfig returns a configuration with defaults applied.
func DefaultConfig() *PortalConfig {
	return &PortalConfig{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     Duration(DefaultReadTimeout),
			WriteTimeout:    Duration(DefaultWriteTimeout),
			IdleTimeout:     Duration(DefaultIdleTimeout),
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
		},
		Auth: AuthConfig{
			TokenTTL: Duration(DefaultTokenTTL),
			LoginRate: LoginRateConfig{
				RPS:   1,
				Burst: 5,
			},
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "portalgw:ratelimit:",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Default: RateRule{
				Limit:  DefaultRateLimit,
				Window: Duration(DefaultRateWindow),
			},
		},
		Logging: LoggingConfig{
			Level:        DefaultLogLevel,
			Format:       "json",
			ForwardLevel: DefaultForwardLevel,
		},
	}
}

// applyDefaults fills zero-valued fields after unmarshaling.
func (c *PortalConfig) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(DefaultTokenTTL)
	}
	if c.Auth.LoginRate.RPS == 0 {
		c.Auth.LoginRate.RPS = 1
	}
	if c.Auth.LoginRate.Burst == 0 {
		c.Auth.LoginRate.Burst = 5
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "portalgw:ratelimit:"
	}
	if c.RateLimit.Default.Limit == 0 {
		c.RateLimit.Default.Limit = DefaultRateLimit
	}
	if c.RateLimit.Default.Window == 0 {
		c.RateLimit.Default.Window = Duration(DefaultRateWindow)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.ForwardLevel == "" {
		c.Logging.ForwardLevel = DefaultForwardLevel
	}
}

// RuleForPath returns the rate rule for a request path: the first
// route rule whose prefix matches, else the default.
func (c *RateLimitConfig) RuleForPath(path string) RateRule {
	for _, r := range c.Routes {
		if len(path) >= len(r.PathPrefix) && path[:len(r.PathPrefix)] == r.PathPrefix {
			return RateRule{Limit: r.Limit, Window: r.Window}
		}
	}
	return c.Default
}
