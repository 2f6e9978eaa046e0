// Package ratelimit bounds how often each API key may hit the platform.
// Every key carries its own requests-per-window quota (the rate_limit column
// on api_keys), enforced by an in-memory token bucket at the gateway. State
// is per-process; a multi-gateway deployment multiplies the effective quota.
package ratelimit

import (
	"sync"
	"time"
)

// bucket tracks the remaining capacity for one API key.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter meters requests per API key. Tokens refill continuously at
// limit/window, so a key that pauses recovers capacity instead of waiting
// for a window boundary.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	window  time.Duration
}

// New creates a Limiter with the given refill window. Stale per-key state is
// reaped in the background so revoked or idle keys do not accumulate.
func New(window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		window:  window,
	}
	go l.reap()
	return l
}

// Allow consumes one token for the key and reports whether it was within its
// quota. limit is the key's configured requests-per-window.
func (l *Limiter) Allow(key string, limit int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		l.buckets[key] = &bucket{
			tokens:   float64(limit - 1),
			lastSeen: now,
		}
		return true
	}

	elapsed := now.Sub(b.lastSeen)
	b.lastSeen = now

	b.tokens += elapsed.Seconds() * float64(limit) / l.window.Seconds()
	if b.tokens > float64(limit) {
		b.tokens = float64(limit)
	}

	if b.tokens < 1 {
		return false
	}

	b.tokens--
	return true
}

// Reset drops the state for one key, restoring its full quota. Used when a
// key's limit is changed by an admin.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// reap periodically drops buckets that have not been seen for two full
// windows; a returning key simply starts a fresh bucket.
func (l *Limiter) reap() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-2 * l.window)
		for key, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
