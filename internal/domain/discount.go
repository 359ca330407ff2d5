package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is the embedded value describing what a discount takes off. Exactly
// one of AmountOff/PercentOff is meaningful in practice, but the provider does
// not enforce it and neither do we.
type Coupon struct {
	Code       string
	AmountOff  *int64 // minor currency units
	Currency   string
	PercentOff *decimal.Decimal
}

// Discount is a coupon attached to either a customer or a single subscription.
// The two owners are mutually exclusive.
type Discount struct {
	ID           uuid.UUID
	Customer     Customer
	Subscription *Subscription
	Coupon       Coupon
	StartedAt    time.Time
	EndAt        *time.Time
}

// NewDiscount creates an unattached discount
func NewDiscount() *Discount {
	return &Discount{ID: uuid.New()}
}
