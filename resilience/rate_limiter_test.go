package resilience

import (
	"testing"
	"time"
)

// fakeClock drives a RateLimiter without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := NewRateLimiter(cfg)
	rl.now = clock.now
	rl.lastRefill = clock.now()
	return rl, clock
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 10, Burst: 5})

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Errorf("request %d should be allowed", i)
		}
	}
	if rl.Allow() {
		t.Error("request over burst should be rejected")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 100, Burst: 1})

	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow() {
		t.Fatal("second request should be rejected")
	}
	if got := rl.RetryAfter(); got != 10*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 10ms", got)
	}

	clock.advance(10 * time.Millisecond)
	if !rl.Allow() {
		t.Error("request after refill should be allowed")
	}
}

func TestRateLimiter_CapsAtBurst(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 10, Burst: 3})
	clock.advance(time.Hour)

	if got := rl.Tokens(); got != 3 {
		t.Errorf("tokens = %v, want 3", got)
	}
	if rl.RetryAfter() != 0 {
		t.Error("RetryAfter should be zero with tokens available")
	}
}

func TestRateLimiter_OnLimit(t *testing.T) {
	var limited []string
	rl, _ := newTestLimiter(RateLimiterConfig{
		Name:    "submit",
		Rate:    1,
		Burst:   1,
		OnLimit: func(name string) { limited = append(limited, name) },
	})

	rl.Allow()
	rl.Allow()
	if len(limited) != 1 || limited[0] != "submit" {
		t.Errorf("OnLimit calls = %v", limited)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	tests := []struct {
		cfg       RateLimiterConfig
		rate      float64
		wantBurst int
	}{
		{RateLimiterConfig{}, 10, 10},
		{RateLimiterConfig{Rate: 0.5}, 0.5, 1},
		{RateLimiterConfig{Rate: 4, Burst: 8}, 4, 8},
	}
	for _, tt := range tests {
		rl := NewRateLimiter(tt.cfg)
		if rl.Rate() != tt.rate || rl.Burst() != tt.wantBurst {
			t.Errorf("%+v: rate = %v burst = %d", tt.cfg, rl.Rate(), rl.Burst())
		}
	}
}
