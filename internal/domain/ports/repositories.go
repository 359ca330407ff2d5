package ports

import (
	"context"
	"time"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// The entity store is an external collaborator: whatever relational mapping
// the embedding application uses sits behind these interfaces. All finders
// return (nil, nil) when no row matches; "absent" is a normal branch of the
// sync state machine, not an error.

// PlanRepository persists plan mirrors
type PlanRepository interface {
	// FindByProviderID looks a plan up by provider id among active plans
	FindByProviderID(ctx context.Context, providerID string) (*domain.Plan, error)

	// FindByNaturalKey looks a plan up by its composite natural key. Provider
	// plan ids can be reused across distinct plan objects created at different
	// times, so the creation timestamp is part of the key.
	FindByNaturalKey(ctx context.Context, providerID string, createdAt time.Time) (*domain.Plan, error)

	// ListActive returns all active plans
	ListActive(ctx context.Context) ([]*domain.Plan, error)

	Save(ctx context.Context, plan *domain.Plan) error
}

// CardRepository persists card mirrors
type CardRepository interface {
	FindByProviderID(ctx context.Context, providerID string) (*domain.Card, error)
	FindByCustomer(ctx context.Context, customer domain.Customer) (*domain.Card, error)
	Save(ctx context.Context, card *domain.Card) error
	Delete(ctx context.Context, card *domain.Card) error
}

// CustomerRepository resolves the embedding application's billable aggregates
// by their provider customer id
type CustomerRepository interface {
	FindByProviderID(ctx context.Context, providerID string) (domain.Customer, error)
	Save(ctx context.Context, customer domain.Customer) error
}

// DiscountRepository persists discount mirrors
type DiscountRepository interface {
	FindByCustomer(ctx context.Context, customer domain.Customer) (*domain.Discount, error)
	FindBySubscription(ctx context.Context, subscription *domain.Subscription) (*domain.Discount, error)
	Save(ctx context.Context, discount *domain.Discount) error
	Delete(ctx context.Context, discount *domain.Discount) error
}

// SubscriptionRepository persists subscription mirrors
type SubscriptionRepository interface {
	FindByProviderID(ctx context.Context, providerID string) (*domain.Subscription, error)
	FindByPayer(ctx context.Context, payer domain.Customer) ([]*domain.Subscription, error)
	Save(ctx context.Context, subscription *domain.Subscription) error
	Delete(ctx context.Context, subscription *domain.Subscription) error
}

// InvoiceRepository persists invoice mirrors together with their line items
type InvoiceRepository interface {
	FindByProviderID(ctx context.Context, providerID string) (*domain.Invoice, error)
	Save(ctx context.Context, invoice *domain.Invoice) error
}

// BillableRepository resolves the aggregate that owns a subscription so
// cancellation events can detach it
type BillableRepository interface {
	FindBySubscription(ctx context.Context, subscription *domain.Subscription) (domain.Billable, error)
	Save(ctx context.Context, billable domain.Billable) error
}
