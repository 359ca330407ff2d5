package ports

import (
	"context"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// CreateCustomerRequest carries the optional attributes a new provider
// customer can be created with
type CreateCustomerRequest struct {
	CardToken   string
	Coupon      string
	Description string
	Email       string
	Metadata    map[string]string
}

// CreateSubscriptionRequest subscribes a provider customer to a plan
type CreateSubscriptionRequest struct {
	CustomerID string
	PlanID     string
	Quantity   int
	TaxPercent string // decimal string, empty when not applicable
}

// UpdateSubscriptionRequest mutates an existing provider subscription.
// Nil fields are left untouched.
type UpdateSubscriptionRequest struct {
	CustomerID string
	PlanID     *string
	Quantity   *int
	Coupon     *string
	TaxPercent *string
	Prorate    *bool
}

// CreateInvoiceRequest force-creates an invoice for pending items
type CreateInvoiceRequest struct {
	CustomerID     string
	SubscriptionID string // optional
	Description    string // optional
}

// UpdateCustomerRequest mutates an existing provider customer.
// Nil fields are left untouched.
type UpdateCustomerRequest struct {
	CardToken *string
	Coupon    *string
}

// ProviderClient fetches authoritative state from, and applies mutations to,
// the remote billing provider. Resources come back as raw payloads (decoded
// JSON objects) that flow straight into the populators.
//
// Mutation calls return domain errors with code PROVIDER_NOT_FOUND for
// 404-equivalent answers; callers that delete decide whether to swallow them.
type ProviderClient interface {
	// GetEvent re-fetches an event by id; the authoritative copy defeats
	// forged webhook payloads. PROVIDER_NOT_FOUND means the provider does not
	// know the id (likely a probe).
	GetEvent(ctx context.Context, id string) (*domain.Event, error)

	// ListPlans iterates all plans defined on the provider
	ListPlans(ctx context.Context) ([]map[string]interface{}, error)

	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (map[string]interface{}, error)
	UpdateCustomer(ctx context.Context, customerID string, req UpdateCustomerRequest) (map[string]interface{}, error)

	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (map[string]interface{}, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, req UpdateSubscriptionRequest) (map[string]interface{}, error)
	CancelSubscription(ctx context.Context, subscriptionID, customerID string, atPeriodEnd bool) (map[string]interface{}, error)

	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (map[string]interface{}, error)

	DeletePlan(ctx context.Context, planID string) error
	DeleteCard(ctx context.Context, cardID, customerID string) error
	DeleteCustomerDiscount(ctx context.Context, customerID string) error
	DeleteSubscriptionDiscount(ctx context.Context, customerID, subscriptionID string) error
}
