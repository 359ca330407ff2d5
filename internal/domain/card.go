package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card is the local mirror of a customer's default payment card
type Card struct {
	ID         uuid.UUID
	ProviderID string
	Customer   Customer
	Brand      string
	ExpMonth   int
	ExpYear    int
	Last4      string
	Country    string
}

// NewCard creates a card owned by the given customer
func NewCard(customer Customer) *Card {
	return &Card{
		ID:       uuid.New(),
		Customer: customer,
	}
}

// IsExpired returns true if the card expiry is strictly before the current month
func (c *Card) IsExpired() bool {
	return c.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the card is expired at the given instant.
// A card expiring in the current (year, month) pair is still valid.
func (c *Card) IsExpiredAt(now time.Time) bool {
	if c.ExpYear != now.Year() {
		return c.ExpYear < now.Year()
	}
	return c.ExpMonth < int(now.Month())
}
