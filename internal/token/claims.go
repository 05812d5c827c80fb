package token

import "time"

// Role names carried by portal credentials.
const (
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
	RoleStudent = "student"
	RoleOrg     = "org"
)

// Claims are the identity fields embedded in a portal auth token.
type Claims struct {
	// UserID is the portal user identifier (JWT subject).
	UserID string

	// Email is the user's email address.
	Email string

	// Role is the portal role (admin, faculty, student, org).
	Role string

	// IssuedAt is when the token was created.
	IssuedAt time.Time

	// ExpiresAt is when the token stops being accepted.
	ExpiresAt time.Time
}

// Valid reports whether the claims carry the minimum identity fields.
func (c *Claims) Valid() bool {
	return c != nil && c.UserID != ""
}
