package config

import (
	"fmt"
	"strings"

	"github.com/opencampus/portalgw/internal/token"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates portal configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a portal configuration.
func ValidateConfig(cfg *PortalConfig) error {
	v := NewValidator()
	return v.Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *PortalConfig) error {
	v.errors = make(ValidationErrors, 0)

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateAuth(&cfg.Auth)
	v.validateRateLimit(&cfg.RateLimit)
	v.validateLogging(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(server *ServerConfig) {
	if server.Port < 1 || server.Port > 65535 {
		v.addError("server.port", fmt.Sprintf("port must be between 1 and 65535, got %d", server.Port))
	}
}

var validRoles = map[string]bool{
	token.RoleAdmin:   true,
	token.RoleFaculty: true,
	token.RoleStudent: true,
	token.RoleOrg:     true,
}

func (v *Validator) validateAuth(auth *AuthConfig) {
	if auth.JWTSecret == "" {
		v.addError("auth.jwtSecret", "jwtSecret is required")
	}
	if auth.TokenTTL.Duration() <= 0 {
		v.addError("auth.tokenTTL", "tokenTTL must be positive")
	}

	for i, acct := range auth.Accounts {
		path := fmt.Sprintf("auth.accounts[%d]", i)
		if acct.UserID == "" {
			v.addError(path+".userId", "userId is required")
		}
		if acct.Email == "" {
			v.addError(path+".email", "email is required")
		}
		if !validRoles[acct.Role] {
			v.addError(path+".role", fmt.Sprintf("unknown role %q", acct.Role))
		}
		if !strings.HasPrefix(acct.PasswordHash, "$2") {
			v.addError(path+".passwordHash", "passwordHash must be a bcrypt hash")
		}
	}
}

func (v *Validator) validateRateLimit(rl *RateLimitConfig) {
	if !rl.Enabled {
		return
	}

	v.validateRateRule(rl.Default, "rateLimit.default")

	for i, route := range rl.Routes {
		path := fmt.Sprintf("rateLimit.routes[%d]", i)
		if !strings.HasPrefix(route.PathPrefix, "/") {
			v.addError(path+".pathPrefix", "pathPrefix must start with '/'")
		}
		v.validateRateRule(RateRule{Limit: route.Limit, Window: route.Window}, path)
	}
}

func (v *Validator) validateRateRule(rule RateRule, path string) {
	if rule.Limit <= 0 {
		v.addError(path+".limit", "limit must be positive")
	}
	if rule.Window.Duration() <= 0 {
		v.addError(path+".window", "window must be positive")
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"http":  true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (v *Validator) validateLogging(logging *LoggingConfig) {
	if logging.Level != "" && !validLogLevels[logging.Level] {
		v.addError("logging.level", fmt.Sprintf("unknown log level %q", logging.Level))
	}
	if logging.ForwardLevel != "" && !validLogLevels[logging.ForwardLevel] {
		v.addError("logging.forwardLevel", fmt.Sprintf("unknown log level %q", logging.ForwardLevel))
	}
	if logging.Format != "" && logging.Format != "json" && logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("format must be 'json' or 'console', got %q", logging.Format))
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
