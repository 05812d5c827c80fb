package token

import (
	"errors"
	"fmt"
)

// Sentinel errors for token operations.
var (
	// ErrInvalidToken indicates a credential that failed verification:
	// bad signature, malformed payload, or expiry in the past.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptyToken indicates that the token string is empty.
	ErrEmptyToken = errors.New("token is empty")

	// ErrMissingSecret indicates that no signing secret was configured.
	ErrMissingSecret = errors.New("signing secret is required")
)

// VerificationError wraps the cause of a failed token verification.
// It matches ErrInvalidToken via errors.Is so callers can treat every
// verification failure uniformly.
type VerificationError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token verification failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("token verification failed: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *VerificationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *VerificationError) Is(target error) bool {
	if errors.Is(target, ErrInvalidToken) {
		return true
	}
	_, ok := target.(*VerificationError)
	return ok
}

// NewVerificationError creates a new VerificationError.
func NewVerificationError(message string, cause error) *VerificationError {
	return &VerificationError{
		Message: message,
		Cause:   cause,
	}
}
