package restfit

import (
	"time"
)

// NewRateLimiter creates a token bucket holding maxTokens, refilling one
// token per refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens <= 0 {
		return false
	}
	rl.tokens--
	return true
}

// Tokens returns the number of currently available tokens.
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	return rl.tokens
}

func (rl *RateLimiter) refill() {
	if rl.refillRate <= 0 {
		return
	}
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	refilled := int(elapsed / rl.refillRate)
	if refilled == 0 {
		return
	}
	rl.tokens += refilled
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(refilled) * rl.refillRate)
}
