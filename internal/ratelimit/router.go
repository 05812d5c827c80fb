package ratelimit

import (
	"context"
	"strings"
	"sync"
)

type prefixRule struct {
	prefix  string
	limiter Limiter
}

// PrefixRouter dispatches rate limit checks to per-route limiters by
// matching the request path embedded in the key against configured
// path prefixes. Keys are expected in the IPPathKeyFunc shape, where
// the path portion starts at ":/" (client IPs, including IPv6, never
// contain that sequence).
type PrefixRouter struct {
	mu       sync.RWMutex
	rules    []prefixRule
	fallback Limiter
}

// NewPrefixRouter creates a router falling back to the given limiter
// when no prefix matches.
func NewPrefixRouter(fallback Limiter) *PrefixRouter {
	if fallback == nil {
		fallback = NewNoopLimiter()
	}
	return &PrefixRouter{fallback: fallback}
}

// AddRule routes keys whose path matches the prefix to the limiter.
// Rules are matched in insertion order, first match wins.
func (p *PrefixRouter) AddRule(prefix string, limiter Limiter) {
	p.mu.Lock()
	p.rules = append(p.rules, prefixRule{prefix: prefix, limiter: limiter})
	p.mu.Unlock()
}

// Replace swaps all rules and the fallback at once, e.g. on a config
// reload.
func (p *PrefixRouter) Replace(fallback Limiter, rules map[string]Limiter, order []string) {
	if fallback == nil {
		fallback = NewNoopLimiter()
	}

	next := make([]prefixRule, 0, len(order))
	for _, prefix := range order {
		if l, ok := rules[prefix]; ok {
			next = append(next, prefixRule{prefix: prefix, limiter: l})
		}
	}

	p.mu.Lock()
	p.fallback = fallback
	p.rules = next
	p.mu.Unlock()
}

// Allow implements Limiter.
func (p *PrefixRouter) Allow(ctx context.Context, key string) (*Result, error) {
	path := pathFromKey(key)

	p.mu.RLock()
	limiter := p.fallback
	for _, rule := range p.rules {
		if strings.HasPrefix(path, rule.prefix) {
			limiter = rule.limiter
			break
		}
	}
	p.mu.RUnlock()

	return limiter.Allow(ctx, key)
}

// pathFromKey extracts the path portion of an "ip:/path" key. Keys
// without a path match only the fallback.
func pathFromKey(key string) string {
	if idx := strings.Index(key, ":/"); idx >= 0 {
		return key[idx+1:]
	}
	return ""
}

// Ensure PrefixRouter implements Limiter.
var _ Limiter = (*PrefixRouter)(nil)
