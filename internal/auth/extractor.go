package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// ExtractBearerToken pulls the bearer token out of the Authorization
// header. A missing header yields ErrNoCredentials; a header carrying
// anything other than a bearer credential yields ErrMalformedHeader.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}

	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMalformedHeader
	}

	tokenStr := strings.TrimSpace(header[len(bearerPrefix):])
	if tokenStr == "" {
		return "", ErrMalformedHeader
	}

	return tokenStr, nil
}
