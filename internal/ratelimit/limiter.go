// Package ratelimit provides per-client token bucket rate limiting for the
// status API routes.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter implements a per-key token bucket rate limiter.
// Each key (client address) gets its own bucket with the configured rate and
// burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow checks if a request for the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		// First request for this key: start with full burst
		b = &bucket{
			tokens:    float64(l.burst),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	// Refill tokens based on elapsed time
	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.lastCheck = now
	}

	// Check if we have at least 1 token
	if b.tokens < 1.0 {
		return false
	}

	b.tokens--
	return true
}

// RouteLimiters maps API routes to their rate limiters.
type RouteLimiters map[string]*Limiter

// NewRouteLimiters creates the default set of per-route limiters. Status
// polling gets a higher budget than the heavier endpoints.
func NewRouteLimiters() RouteLimiters {
	return RouteLimiters{
		"/api/status":        NewLimiter(20.0/60.0, 5), // 20/minute, burst 5
		"/api/evolution":     NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"/api/system_health": NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
	}
}

// CheckLimit checks the rate limit for a route and client key.
// Returns nil if allowed, or an error if rate limited.
// Routes without a configured limiter are always allowed.
func CheckLimit(limiters RouteLimiters, route, client string) error {
	limiter, ok := limiters[route]
	if !ok {
		return nil // No limiter configured = no limit
	}

	if !limiter.Allow(client) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", route)
	}

	return nil
}
