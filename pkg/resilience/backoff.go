// Package resilience provides retry backoff strategies for talking to the
// billing provider's API.
package resilience

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines retry backoff behavior
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter. The jitter
// spreads retry attempts over time so parallel callers do not hammer the
// provider in lockstep.
type ExponentialBackoff struct {
	BaseDelay  time.Duration // initial delay
	MaxDelay   time.Duration // cap on the computed delay
	Multiplier float64       // exponential multiplier, typically 2.0
	Jitter     float64       // jitter factor in [0,1], typically 0.1
}

// ProviderBackoff returns defaults for retrying provider API reads.
//
// Retry sequence (±10% jitter): ~100ms, ~200ms, ~400ms, ~800ms, ~1.6s, ...
// capped at 5s. Provider requests run inside a webhook delivery, so the total
// retry budget has to stay well under the provider's delivery timeout.
func ProviderBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay calculates the delay for the given attempt number (0-indexed):
// BaseDelay * (Multiplier ^ attempt) ± jitter, capped at MaxDelay
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	jitterAmount := delay * eb.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterAmount

	finalDelay := time.Duration(delay + jitter)
	if finalDelay < 0 {
		finalDelay = eb.BaseDelay
	}
	return finalDelay
}

// FixedBackoff implements a constant delay between attempts
type FixedBackoff struct {
	Delay time.Duration
}

// NextDelay returns the fixed delay regardless of attempt number
func (fb *FixedBackoff) NextDelay(attempt int) time.Duration {
	return fb.Delay
}
