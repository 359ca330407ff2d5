package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the provider-reported subscription state. Known values
// get constants; any other string the provider sends is preserved as-is.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is the local mirror of a provider subscription
type Subscription struct {
	ID                 uuid.UUID
	ProviderID         string
	Plan               *Plan
	Payer              Customer
	Discount           *Discount
	Quantity           int
	TaxPercent         decimal.Decimal
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialStart         *time.Time
	TrialEnd           *time.Time
	CancelledAt        *time.Time
	EndedAt            *time.Time
	Status             SubscriptionStatus
}

// NewSubscription creates an empty subscription mirror
func NewSubscription() *Subscription {
	return &Subscription{ID: uuid.New()}
}

// IsTrialing returns true while the subscription is in its trial period
func (s *Subscription) IsTrialing() bool {
	return s.Status == SubscriptionStatusTrialing
}

// IsActive returns true if the subscription is currently active
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsCancelled returns true once the provider reports the subscription canceled
func (s *Subscription) IsCancelled() bool {
	return s.Status == SubscriptionStatusCanceled
}

// IsOnGrace reports whether cancellation has been requested but the paid
// period has not lapsed yet: CancelledAt is set and EndedAt is not
func (s *Subscription) IsOnGrace() bool {
	return s.CancelledAt != nil && s.EndedAt == nil
}
