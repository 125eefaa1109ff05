package tools

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window call ceiling per key. The expert
// help tool uses it keyed by user request id: each user request may consult
// the expert a bounded number of times per window.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing limit calls per window per key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one call for key when it is under the ceiling, reporting
// whether the call may proceed and how many calls remain after it.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.entries[key][:0]
	for _, t := range rl.entries[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.entries[key] = kept
		return false, 0
	}
	kept = append(kept, now)
	rl.entries[key] = kept
	return true, rl.limit - len(kept)
}
