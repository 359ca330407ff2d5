// Package notify carries closed-invoice notifications to their consumers.
// The logging notifier is the default wiring; applications embedding this
// service replace it with their own implementation (mail, message queue).
package notify

import (
	"context"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/pkg/observability"
)

// LoggingNotifier records closed invoices in the log and in the metrics
type LoggingNotifier struct {
	logger ports.Logger
}

// NewLoggingNotifier creates a logging notifier
func NewLoggingNotifier(logger ports.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

// InvoiceClosed implements ports.InvoiceNotifier
func (n *LoggingNotifier) InvoiceClosed(ctx context.Context, invoice *domain.Invoice) error {
	observability.RecordInvoiceClosed(invoice.Currency, invoice.AmountDue)
	n.logger.Info("invoice closed",
		ports.String("invoice", invoice.ProviderID),
		ports.String("currency", invoice.Currency),
		ports.Int("line_items", len(invoice.LineItems)),
		ports.Bool("paid", invoice.Paid))
	return nil
}
