// Package invoice mirrors provider invoices and raises closed-invoice
// notifications. Line items are frozen into an invoice exactly once, the
// first time it is observed closed, so redeliveries never duplicate them.
package invoice

import (
	"context"
	"fmt"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/populator"
)

// Service synchronizes invoice mirrors
type Service struct {
	invoices      ports.InvoiceRepository
	customers     ports.CustomerRepository
	subscriptions ports.SubscriptionRepository
	provider      ports.ProviderClient
	notifier      ports.InvoiceNotifier
	logger        ports.Logger
}

// NewService creates a new invoice service. The notifier may be nil when no
// closed-invoice consumer is configured.
func NewService(
	invoices ports.InvoiceRepository,
	customers ports.CustomerRepository,
	subscriptions ports.SubscriptionRepository,
	provider ports.ProviderClient,
	notifier ports.InvoiceNotifier,
	logger ports.Logger,
) *Service {
	return &Service{
		invoices:      invoices,
		customers:     customers,
		subscriptions: subscriptions,
		provider:      provider,
		notifier:      notifier,
		logger:        logger,
	}
}

func recognized(eventType string) bool {
	switch eventType {
	case "invoice.created", "invoice.updated", "invoice.payment_succeeded", "invoice.payment_failed":
		return true
	}
	return false
}

// SyncFromEvent applies a provider invoice event to the local mirror.
//
// An invoice for a customer not mirrored yet yields a retry-later error; the
// customer row is written synchronously on signup, so the gap only exists
// when events are delivered out of order. The closed-invoice notification
// fires only when this very event froze the line items, never on the
// follow-up invoice.updated redeliveries.
func (s *Service) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	if !recognized(event.Type) {
		return domain.Ignored(), nil
	}

	providerID, ok := event.Object["id"].(string)
	if !ok || providerID == "" {
		return domain.SyncOutcome{}, domain.MissingField("invoice", "id")
	}

	invoice, err := s.invoices.FindByProviderID(ctx, providerID)
	if err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("find invoice %q: %w", providerID, err)
	}

	if invoice != nil && event.IsCreation() {
		return domain.Skipped(fmt.Sprintf("invoice %q already exists locally", providerID)), nil
	}

	if invoice == nil {
		invoice, err = s.newInvoice(ctx, event.Object)
		if err != nil {
			return domain.SyncOutcome{}, err
		}
	}

	snapshotted, err := populator.Invoice(invoice, event.Object)
	if err != nil {
		return domain.SyncOutcome{}, err
	}
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("save invoice %q: %w", providerID, err)
	}

	if invoice.Closed && snapshotted && event.Type != "invoice.updated" {
		s.notifyClosed(ctx, invoice)
	}

	return domain.Processed(fmt.Sprintf("invoice %q synchronized", providerID)), nil
}

// Create asks the provider to invoice any pending items for a customer and
// mirrors the result
func (s *Service) Create(ctx context.Context, payer domain.Customer, description string) (*domain.Invoice, error) {
	payload, err := s.provider.CreateInvoice(ctx, ports.CreateInvoiceRequest{
		CustomerID:  payer.ProviderID(),
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice for customer %q: %w", payer.ProviderID(), err)
	}

	invoice := domain.NewInvoice()
	invoice.Payer = payer
	s.snapshotVat(invoice, payer)
	if _, err := populator.Invoice(invoice, payload); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save invoice %q: %w", invoice.ProviderID, err)
	}
	return invoice, nil
}

// newInvoice builds a fresh mirror row and attaches its owners from the
// provider payload
func (s *Service) newInvoice(ctx context.Context, payload map[string]interface{}) (*domain.Invoice, error) {
	customerID, _ := payload["customer"].(string)
	if customerID == "" {
		return nil, domain.MissingField("invoice", "customer")
	}
	payer, err := s.customers.FindByProviderID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("find customer %q: %w", customerID, err)
	}
	if payer == nil {
		return nil, domain.RetryLater("customer", customerID)
	}

	invoice := domain.NewInvoice()
	invoice.Payer = payer
	s.snapshotVat(invoice, payer)

	if subscriptionID, _ := payload["subscription"].(string); subscriptionID != "" {
		subscription, err := s.subscriptions.FindByProviderID(ctx, subscriptionID)
		if err != nil {
			return nil, fmt.Errorf("find subscription %q: %w", subscriptionID, err)
		}
		invoice.Subscription = subscription
	}
	return invoice, nil
}

// snapshotVat copies the payer's VAT details onto the invoice. Invoices are
// legal documents; the values must not change when the customer later edits
// their VAT registration.
func (s *Service) snapshotVat(invoice *domain.Invoice, payer domain.Customer) {
	if vat, ok := payer.(domain.VatCustomer); ok {
		invoice.VatNumber = vat.VatNumber()
		invoice.VatCountry = vat.VatCountry()
	}
}

func (s *Service) notifyClosed(ctx context.Context, invoice *domain.Invoice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.InvoiceClosed(ctx, invoice); err != nil {
		s.logger.Error("invoice closed notification failed",
			ports.String("invoice", invoice.ProviderID),
			ports.Err(err))
	}
}
