package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0, // deterministic for this test
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 3200 * time.Millisecond},
		{6, 5 * time.Second}, // capped
		{10, 5 * time.Second},
	}

	for _, tt := range tests {
		got := eb.NextDelay(tt.attempt)
		assert.Equal(t, tt.want, got, "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_NegativeAttempt(t *testing.T) {
	eb := ProviderBackoff()
	assert.Equal(t, eb.BaseDelay, eb.NextDelay(-1))
}

func TestExponentialBackoff_JitterStaysInBounds(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}

	for attempt := 0; attempt < 6; attempt++ {
		base := float64(100*time.Millisecond) * pow2(attempt)
		lo := time.Duration(base * 0.9)
		hi := time.Duration(base * 1.1)

		for i := 0; i < 50; i++ {
			got := eb.NextDelay(attempt)
			assert.GreaterOrEqual(t, got, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, got, hi, "attempt %d", attempt)
		}
	}
}

func pow2(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 2
	}
	return v
}

func TestProviderBackoff_TotalBudget(t *testing.T) {
	eb := ProviderBackoff()

	// Three retries must finish well inside a webhook delivery window.
	var total time.Duration
	for attempt := 0; attempt < 3; attempt++ {
		total += eb.NextDelay(attempt)
	}
	assert.Less(t, total, 2*time.Second)
}

func TestFixedBackoff(t *testing.T) {
	fb := &FixedBackoff{Delay: 250 * time.Millisecond}
	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, 250*time.Millisecond, fb.NextDelay(attempt))
	}
}
