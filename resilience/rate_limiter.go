package resilience

import (
	"sync"
	"time"
)

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for logging.
	Name string
	// Rate is the number of admissions per second.
	Rate float64
	// Burst is the bucket size. Defaults to Rate rounded down, at least 1.
	Burst int
	// OnLimit is called when an admission is refused.
	OnLimit func(name string)
}

// RateLimiter is a token bucket. It never blocks; callers reject work it
// refuses.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = max(int(config.Rate), 1)
	}
	rl := &RateLimiter{config: config, now: time.Now}
	rl.tokens = float64(config.Burst)
	rl.lastRefill = rl.now()
	return rl
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN takes n tokens if available.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	rl.refill()
	ok := rl.tokens >= float64(n)
	if ok {
		rl.tokens -= float64(n)
	}
	rl.mu.Unlock()

	if !ok && rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
	return ok
}

// RetryAfter returns how long until one token is available.
func (rl *RateLimiter) RetryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	if rl.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - rl.tokens) / rl.config.Rate * float64(time.Second))
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now

	rl.tokens += elapsed * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// Rate returns admissions per second.
func (rl *RateLimiter) Rate() float64 {
	return rl.config.Rate
}

// Burst returns the bucket size.
func (rl *RateLimiter) Burst() int {
	return rl.config.Burst
}
