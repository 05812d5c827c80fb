// Package token issues and verifies the signed credentials that carry a
// portal user's identity between the browser and the gateway.
package token

import (
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/opencampus/portalgw/internal/observability"
)

// DefaultTTL is the token lifetime used when Issue is called with a
// non-positive ttl.
const DefaultTTL = 24 * time.Hour

// Custom claim names.
const (
	claimEmail = "email"
	claimRole  = "role"
)

// Codec signs and verifies portal auth tokens.
type Codec struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	clock      func() time.Time
	logger     observability.Logger
}

// CodecOption is a functional option for the codec.
type CodecOption func(*Codec)

// WithIssuer sets the iss claim stamped on issued tokens.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithDefaultTTL overrides the default token lifetime.
func WithDefaultTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(clock func() time.Time) CodecOption {
	return func(c *Codec) {
		c.clock = clock
	}
}

// WithCodecLogger sets the logger for the codec.
func WithCodecLogger(logger observability.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// NewCodec creates a codec signing with the given HMAC secret.
func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	c := &Codec{
		secret:     secret,
		defaultTTL: DefaultTTL,
		clock:      time.Now,
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Issue creates a signed token for the given claims, expiring after ttl.
// A non-positive ttl falls back to the codec's default.
func (c *Codec) Issue(claims *Claims, ttl time.Duration) (string, error) {
	if !claims.Valid() {
		return "", errors.New("claims must carry a user id")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := c.clock()

	builder := jwt.NewBuilder().
		Subject(claims.UserID).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim(claimEmail, claims.Email).
		Claim(claimRole, claims.Role)

	if c.issuer != "" {
		builder = builder.Issuer(c.issuer)
	}

	tok, err := builder.Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", err
	}

	recordIssued()
	c.logger.Debug("token issued",
		observability.String("user_id", claims.UserID),
		observability.String("role", claims.Role),
	)

	return string(signed), nil
}

// Verify decodes a token, checking signature and expiry. Every failure
// mode matches ErrInvalidToken via errors.Is.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	start := time.Now()

	if tokenStr == "" {
		recordVerification("empty", time.Since(start))
		return nil, NewVerificationError("empty token", ErrEmptyToken)
	}

	tok, err := jwt.Parse([]byte(tokenStr),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.clock)),
	)
	if err != nil {
		status := "invalid"
		message := "signature or payload check failed"
		if errors.Is(err, jwt.ErrTokenExpired()) {
			status = "expired"
			message = "token expired"
		}
		recordVerification(status, time.Since(start))
		return nil, NewVerificationError(message, err)
	}

	claims := &Claims{
		UserID:    tok.Subject(),
		IssuedAt:  tok.IssuedAt(),
		ExpiresAt: tok.Expiration(),
	}
	if v, ok := tok.Get(claimEmail); ok {
		if s, ok := v.(string); ok {
			claims.Email = s
		}
	}
	if v, ok := tok.Get(claimRole); ok {
		if s, ok := v.(string); ok {
			claims.Role = s
		}
	}

	if !claims.Valid() {
		recordVerification("invalid", time.Since(start))
		return nil, NewVerificationError("missing subject claim", nil)
	}

	recordVerification("success", time.Since(start))
	return claims, nil
}
