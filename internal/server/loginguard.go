package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginGuardTTL is how long an idle client's limiter is kept.
const loginGuardTTL = 10 * time.Minute

type guardEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// loginGuard throttles login attempts per client IP with a token
// bucket. It is deliberately separate from the Redis limiter: login is
// unauthenticated traffic and must stay bounded even when Redis is
// down.
type loginGuard struct {
	mu      sync.Mutex
	clients map[string]*guardEntry
	rps     rate.Limit
	burst   int
	stopCh  chan struct{}
	stopped bool
}

func newLoginGuard(rps float64, burst int) *loginGuard {
	g := &loginGuard{
		clients: make(map[string]*guardEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		stopCh:  make(chan struct{}),
	}
	go g.cleanupLoop()
	return g
}

// Allow reports whether the client may attempt a login now.
func (g *loginGuard) Allow(clientIP string) bool {
	now := time.Now()

	g.mu.Lock()
	entry, ok := g.clients[clientIP]
	if !ok {
		entry = &guardEntry{
			limiter: rate.NewLimiter(g.rps, g.burst),
		}
		g.clients[clientIP] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	g.mu.Unlock()

	return limiter.Allow()
}

func (g *loginGuard) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.cleanup()
		case <-g.stopCh:
			return
		}
	}
}

func (g *loginGuard) cleanup() {
	cutoff := time.Now().Add(-loginGuardTTL)

	g.mu.Lock()
	for ip, entry := range g.clients {
		if entry.lastAccess.Before(cutoff) {
			delete(g.clients, ip)
		}
	}
	g.mu.Unlock()
}

func (g *loginGuard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.stopped {
		g.stopped = true
		close(g.stopCh)
	}
}
