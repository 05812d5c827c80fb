// Package auth attaches verified portal identities to requests.
package auth

import (
	"context"
	"time"
)

// Identity is the decoded identity of an authenticated portal user.
type Identity struct {
	// UserID is the portal user identifier.
	UserID string

	// Email is the user's email address.
	Email string

	// Role is the portal role (admin, faculty, student, org).
	Role string

	// IssuedAt is when the presented credential was created.
	IssuedAt time.Time

	// ExpiresAt is when the presented credential expires.
	ExpiresAt time.Time
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	return i != nil && i.Role == role
}

// HasAnyRole reports whether the identity carries any of the given roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// identityContextKey is the context key for the authenticated identity.
type identityContextKey struct{}

// ContextWithIdentity attaches an identity to the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok && identity != nil
}
