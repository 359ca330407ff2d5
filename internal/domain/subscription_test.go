package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscription_IsOnGrace(t *testing.T) {
	cancelled := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ended := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	running := NewSubscription()
	assert.False(t, running.IsOnGrace())

	grace := NewSubscription()
	grace.CancelledAt = &cancelled
	assert.True(t, grace.IsOnGrace())

	over := NewSubscription()
	over.CancelledAt = &cancelled
	over.EndedAt = &ended
	assert.False(t, over.IsOnGrace())
}

func TestSubscription_StatusPredicates(t *testing.T) {
	s := NewSubscription()

	s.Status = SubscriptionStatusTrialing
	assert.True(t, s.IsTrialing())
	assert.False(t, s.IsActive())

	s.Status = SubscriptionStatusActive
	assert.True(t, s.IsActive())

	s.Status = SubscriptionStatusCanceled
	assert.True(t, s.IsCancelled())

	// unknown provider statuses are preserved, not coerced
	s.Status = SubscriptionStatus("past_due")
	assert.False(t, s.IsActive())
	assert.False(t, s.IsCancelled())
}
