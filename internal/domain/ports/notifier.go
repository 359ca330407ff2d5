package ports

import (
	"context"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// InvoiceNotifier receives the downstream "invoice closed" notification, the
// hook point for PDF generation, emailing and similar consumers. Delivery is
// fire-and-forget from the sync core's perspective: a notifier error is logged
// by the caller but never fails the sync.
type InvoiceNotifier interface {
	InvoiceClosed(ctx context.Context, invoice *domain.Invoice) error
}
