package spotify

import (
	"math"
	"math/rand"
	"time"

	"github.com/cratebot/cratebot/internal/shared"
)

// minRetryDelay floors every computed backoff delay.
const minRetryDelay = 100 * time.Millisecond

// Policy controls the retry behavior of [Client]. It is immutable and shared
// read-only across all client operations.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      float64 // fraction of the delay, e.g. 0.25 for ±25%
}

// DefaultPolicy returns the retry policy used when configuration provides none.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.25,
	}
}

// PolicyFromConfig builds a Policy from the retry section of the bot config.
func PolicyFromConfig(rc shared.RetryConfig) Policy {
	p := DefaultPolicy()
	if rc.MaxAttempts > 0 {
		p.MaxAttempts = rc.MaxAttempts
	}
	if rc.BaseDelayMS > 0 {
		p.BaseDelay = time.Duration(rc.BaseDelayMS) * time.Millisecond
	}
	if rc.MaxDelayMS > 0 {
		p.MaxDelay = time.Duration(rc.MaxDelayMS) * time.Millisecond
	}
	return p
}

// Delay computes the backoff delay for a 1-indexed attempt:
// min(MaxDelay, BaseDelay*Multiplier^(attempt-1)), jittered by a uniform
// offset within ±Jitter of that value and floored at minRetryDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if m := float64(p.MaxDelay); d > m {
		d = m
	}

	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * p.Jitter * d
	}

	if d < float64(minRetryDelay) {
		d = float64(minRetryDelay)
	}
	return time.Duration(d)
}
