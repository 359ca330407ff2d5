package populator

import (
	"github.com/google/uuid"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// Invoice copies a provider invoice payload onto an invoice mirror. The payer
// and subscription relations are the caller's.
//
// Line items are a one-shot snapshot: the provider can keep adding lines to an
// open invoice, so they are only written when the payload reports the invoice
// closed and no lines have been stored yet. The returned flag tells the caller
// whether this call took that snapshot, which is what makes the downstream
// invoice-closed notification fire at most once.
func Invoice(invoice *domain.Invoice, payload map[string]interface{}) (snapshotted bool, err error) {
	providerID, err := stringField(payload, "invoice", "id")
	if err != nil {
		return false, err
	}
	createdAt, err := timeField(payload, "invoice", "date")
	if err != nil {
		return false, err
	}
	periodStart, err := timeField(payload, "invoice", "period_start")
	if err != nil {
		return false, err
	}
	periodEnd, err := timeField(payload, "invoice", "period_end")
	if err != nil {
		return false, err
	}
	subtotal, err := int64Field(payload, "invoice", "subtotal")
	if err != nil {
		return false, err
	}
	total, err := int64Field(payload, "invoice", "total")
	if err != nil {
		return false, err
	}
	amountDue, err := int64Field(payload, "invoice", "amount_due")
	if err != nil {
		return false, err
	}
	currency, err := stringField(payload, "invoice", "currency")
	if err != nil {
		return false, err
	}
	closed, err := boolField(payload, "invoice", "closed")
	if err != nil {
		return false, err
	}
	paid, err := boolField(payload, "invoice", "paid")
	if err != nil {
		return false, err
	}
	attemptCount, err := intField(payload, "invoice", "attempt_count")
	if err != nil {
		return false, err
	}

	invoice.ProviderID = providerID
	invoice.CreatedAt = createdAt
	invoice.PeriodStart = periodStart
	invoice.PeriodEnd = periodEnd
	invoice.Subtotal = subtotal
	invoice.Total = total
	invoice.AmountDue = amountDue
	invoice.Currency = currency
	invoice.Closed = closed
	invoice.Paid = paid
	invoice.AttemptCount = attemptCount

	if startingBalance := optionalInt64(payload, "starting_balance"); startingBalance != nil {
		invoice.StartingBalance = *startingBalance
	}
	invoice.EndingBalance = optionalInt64(payload, "ending_balance")
	invoice.ApplicationFee = optionalInt64(payload, "application_fee")
	// Tax is not always present in provider payloads
	if tax := optionalInt64(payload, "tax"); tax != nil {
		invoice.Tax = *tax
	}
	invoice.TaxPercent = optionalDecimal(payload, "tax_percent")
	if forgiven, ok := payload["forgiven"].(bool); ok {
		invoice.Forgiven = forgiven
	}
	invoice.Description = optionalString(payload, "description")

	if closed && len(invoice.LineItems) == 0 {
		for _, line := range listData(payload, "lines") {
			amount, err := int64Field(line, "line_item", "amount")
			if err != nil {
				return false, err
			}
			lineCurrency, err := stringField(line, "line_item", "currency")
			if err != nil {
				return false, err
			}
			invoice.AddLineItem(&domain.LineItem{
				ID:          uuid.New(),
				Amount:      amount,
				Currency:    lineCurrency,
				Description: optionalString(line, "description"),
			})
		}
		snapshotted = true
	}

	return snapshotted, nil
}
