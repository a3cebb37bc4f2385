package environment

import (
	"sync"
	"time"
)

// RateLimiter throttles publishes per key
type RateLimiter struct {
	mu          sync.RWMutex
	lastPublish map[string]time.Time
	now         func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		lastPublish: make(map[string]time.Time),
		now:         time.Now,
	}
}

// ShouldPublish checks if enough time has passed since the last publish
// Returns true if the publish should happen, false if rate limited
func (rl *RateLimiter) ShouldPublish(key string, minInterval time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	lastTime, exists := rl.lastPublish[key]
	if exists && now.Sub(lastTime) < minInterval {
		return false
	}

	rl.lastPublish[key] = now
	return true
}

// RecordPublish records a publish that bypassed rate limiting (forced publishes)
func (rl *RateLimiter) RecordPublish(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lastPublish[key] = rl.now()
}

// LastPublishTime returns the last publish time for a key
func (rl *RateLimiter) LastPublishTime(key string) (time.Time, bool) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	lastTime, exists := rl.lastPublish[key]
	return lastTime, exists
}
