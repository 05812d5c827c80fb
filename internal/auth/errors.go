package auth

import "errors"

// Sentinel errors for authentication.
var (
	// ErrNoCredentials indicates that no Authorization header was presented.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrMalformedHeader indicates an Authorization header that is not a
	// well-formed bearer credential.
	ErrMalformedHeader = errors.New("malformed authorization header")
)
