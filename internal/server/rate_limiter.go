package server

import (
	"sync"
	"time"
)

// rateLimiter throttles login attempts per client IP over a fixed window.
// Expired windows are swept lazily so the map does not grow with one entry
// per IP forever.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	attempts  map[string]*attemptWindow
	lastSweep time.Time
}

type attemptWindow struct {
	openedAt time.Time
	count    int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*attemptWindow),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) > r.window {
		r.sweepLocked(now)
		r.lastSweep = now
	}

	w := r.attempts[key]
	if w == nil || now.Sub(w.openedAt) > r.window {
		w = &attemptWindow{openedAt: now}
		r.attempts[key] = w
	}

	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

func (r *rateLimiter) sweepLocked(now time.Time) {
	for key, w := range r.attempts {
		if now.Sub(w.openedAt) > r.window {
			delete(r.attempts, key)
		}
	}
}
