// Package customer creates and resolves provider customers. Customers have
// no webhook sync path of their own; they are created synchronously when the
// application first bills an account.
package customer

import (
	"context"
	"fmt"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
)

// Service manages provider customers
type Service struct {
	customers ports.CustomerRepository
	provider  ports.ProviderClient
	logger    ports.Logger
}

// NewService creates a new customer service
func NewService(customers ports.CustomerRepository, provider ports.ProviderClient, logger ports.Logger) *Service {
	return &Service{
		customers: customers,
		provider:  provider,
		logger:    logger,
	}
}

// Create registers the customer on the provider and records the assigned id.
// Optionally a card token and a coupon code are attached in the same call.
func (s *Service) Create(ctx context.Context, customer domain.Customer, req ports.CreateCustomerRequest) error {
	payload, err := s.provider.CreateCustomer(ctx, req)
	if err != nil {
		return fmt.Errorf("create provider customer: %w", err)
	}

	providerID, ok := payload["id"].(string)
	if !ok || providerID == "" {
		return domain.MissingField("customer", "id")
	}
	customer.SetProviderID(providerID)

	if err := s.customers.Save(ctx, customer); err != nil {
		return fmt.Errorf("save customer %q: %w", providerID, err)
	}

	s.logger.Info("provider customer created", ports.String("provider_id", providerID))
	return nil
}

// GetByProviderID resolves a local customer from a provider id. Returns
// (nil, nil) when no local customer carries that id.
func (s *Service) GetByProviderID(ctx context.Context, providerID string) (domain.Customer, error) {
	return s.customers.FindByProviderID(ctx, providerID)
}
