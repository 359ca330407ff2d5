package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCard_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expMonth int
		expYear  int
		expired  bool
	}{
		{"current month still valid", 6, 2026, false},
		{"previous month expired", 5, 2026, true},
		{"next month valid", 7, 2026, false},
		{"previous year expired", 12, 2025, true},
		{"next year valid", 1, 2027, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &Card{ExpMonth: tt.expMonth, ExpYear: tt.expYear}
			assert.Equal(t, tt.expired, card.IsExpiredAt(now))
		})
	}
}
