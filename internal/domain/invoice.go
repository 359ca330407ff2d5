package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is an immutable snapshot of one invoice line. Line items are
// written once, when the invoice is first observed closed, and never re-synced
// afterwards: the provider may add lines to an open invoice at any time.
type LineItem struct {
	ID          uuid.UUID
	Invoice     *Invoice
	Amount      int64
	Currency    string
	Description string
}

// Invoice is the local mirror of a provider invoice
type Invoice struct {
	ID              uuid.UUID
	ProviderID      string
	Payer           Customer
	Subscription    *Subscription
	PeriodStart     time.Time
	PeriodEnd       time.Time
	StartingBalance int64
	EndingBalance   *int64
	Subtotal        int64
	Total           int64
	ApplicationFee  *int64
	Tax             int64
	TaxPercent      *decimal.Decimal
	AmountDue       int64
	Currency        string
	Closed          bool
	Paid            bool
	Forgiven        bool
	AttemptCount    int
	LineItems       []*LineItem
	Description     string
	VatNumber       string
	VatCountry      string
	ExportURL       string
	CreatedAt       time.Time
}

// NewInvoice creates an empty invoice mirror
func NewInvoice() *Invoice {
	return &Invoice{ID: uuid.New()}
}

// IsClosed returns true once the provider closed the invoice
func (i *Invoice) IsClosed() bool { return i.Closed }

// IsPaid returns true once the invoice has been paid
func (i *Invoice) IsPaid() bool { return i.Paid }

// IsForgiven returns true if the invoice was forgiven
func (i *Invoice) IsForgiven() bool { return i.Forgiven }

// AddLineItem appends a line and sets its back-reference to this invoice
func (i *Invoice) AddLineItem(item *LineItem) {
	item.Invoice = i
	i.LineItems = append(i.LineItems, item)
}
