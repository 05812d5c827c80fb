package ratelimit

import (
	"net/http"
	"strings"
)

// KeyFunc is a function that extracts a rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc returns the client IP as the rate limit key.
func IPKeyFunc(r *http.Request) string {
	return GetClientIP(r)
}

// IPPathKeyFunc combines the client IP and the request path, so each
// client is tracked independently per endpoint. This is the default key
// for the request pipeline.
func IPPathKeyFunc(r *http.Request) string {
	return GetClientIP(r) + ":" + r.URL.Path
}

// PerRouteKeyFunc returns a KeyFunc that includes the route name in the key.
func PerRouteKeyFunc(routeName string, baseKeyFunc KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		return routeName + ":" + baseKeyFunc(r)
	}
}

// GetClientIP extracts the client IP from the request.
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	// Remove brackets from IPv6 addresses
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	return ip
}
