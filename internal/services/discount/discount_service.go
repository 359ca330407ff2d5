// Package discount manages coupon redemptions against customers and
// subscriptions. A discount always hangs off exactly one owner; provider
// events name the owner by provider id, so the owner must already be mirrored
// locally before the event can be applied.
package discount

import (
	"context"
	"fmt"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/populator"
)

// Service synchronizes discount mirrors
type Service struct {
	discounts     ports.DiscountRepository
	customers     ports.CustomerRepository
	subscriptions ports.SubscriptionRepository
	provider      ports.ProviderClient
	logger        ports.Logger
}

// NewService creates a new discount service
func NewService(
	discounts ports.DiscountRepository,
	customers ports.CustomerRepository,
	subscriptions ports.SubscriptionRepository,
	provider ports.ProviderClient,
	logger ports.Logger,
) *Service {
	return &Service{
		discounts:     discounts,
		customers:     customers,
		subscriptions: subscriptions,
		provider:      provider,
		logger:        logger,
	}
}

func recognized(eventType string) bool {
	switch eventType {
	case "customer.discount.created", "customer.discount.updated", "customer.discount.deleted":
		return true
	}
	return false
}

// SyncFromEvent applies a provider discount event to the local mirror.
//
// The owner is resolved before anything else. Provider delivery order is not
// guaranteed, so a discount event can arrive before the subscription it
// belongs to has been mirrored; in that case the caller gets a retry-later
// error and must answer the webhook with a non-success status so the
// provider redelivers.
func (s *Service) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	if !recognized(event.Type) {
		return domain.Ignored(), nil
	}

	var (
		discount *domain.Discount
		err      error
	)
	subscriptionID, _ := event.Object["subscription"].(string)
	customerID, _ := event.Object["customer"].(string)

	var subscription *domain.Subscription
	var customer domain.Customer

	if subscriptionID != "" {
		subscription, err = s.subscriptions.FindByProviderID(ctx, subscriptionID)
		if err != nil {
			return domain.SyncOutcome{}, fmt.Errorf("find subscription %q: %w", subscriptionID, err)
		}
		if subscription == nil {
			return domain.SyncOutcome{}, domain.RetryLater("subscription", subscriptionID)
		}
		discount, err = s.discounts.FindBySubscription(ctx, subscription)
	} else {
		if customerID == "" {
			return domain.SyncOutcome{}, domain.MissingField("discount", "customer")
		}
		customer, err = s.customers.FindByProviderID(ctx, customerID)
		if err != nil {
			return domain.SyncOutcome{}, fmt.Errorf("find customer %q: %w", customerID, err)
		}
		if customer == nil {
			return domain.SyncOutcome{}, domain.RetryLater("customer", customerID)
		}
		discount, err = s.discounts.FindByCustomer(ctx, customer)
	}
	if err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("find discount: %w", err)
	}

	if event.IsDeletion() {
		if discount == nil {
			return domain.Skipped("no local discount to remove"), nil
		}
		s.detach(discount)
		if err := s.discounts.Delete(ctx, discount); err != nil {
			return domain.SyncOutcome{}, fmt.Errorf("delete discount: %w", err)
		}
		return domain.Processed("discount removed"), nil
	}

	if discount != nil && event.IsCreation() {
		return domain.Skipped("discount already exists locally"), nil
	}

	if discount == nil {
		discount = domain.NewDiscount()
		if subscription != nil {
			discount.Subscription = subscription
			subscription.Discount = discount
		} else {
			discount.Customer = customer
			customer.SetDiscount(discount)
		}
	}
	if err := populator.Discount(discount, event.Object); err != nil {
		return domain.SyncOutcome{}, err
	}
	if err := s.discounts.Save(ctx, discount); err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("save discount: %w", err)
	}

	return domain.Processed("discount synchronized"), nil
}

// ApplyToCustomer redeems a coupon against a customer on the provider and
// mirrors the resulting discount locally
func (s *Service) ApplyToCustomer(ctx context.Context, customer domain.Customer, couponCode string) (*domain.Discount, error) {
	code := couponCode
	payload, err := s.provider.UpdateCustomer(ctx, customer.ProviderID(), ports.UpdateCustomerRequest{
		Coupon: &code,
	})
	if err != nil {
		return nil, fmt.Errorf("apply coupon %q to customer %q: %w", couponCode, customer.ProviderID(), err)
	}
	discountPayload, ok := payload["discount"].(map[string]interface{})
	if !ok {
		return nil, domain.MissingField("customer", "discount")
	}

	discount := customer.Discount()
	if discount == nil {
		discount = domain.NewDiscount()
		discount.Customer = customer
		customer.SetDiscount(discount)
	}
	if err := populator.Discount(discount, discountPayload); err != nil {
		return nil, err
	}
	if err := s.discounts.Save(ctx, discount); err != nil {
		return nil, fmt.Errorf("save discount: %w", err)
	}
	return discount, nil
}

// ApplyToSubscription redeems a coupon against a subscription on the provider
// and mirrors the resulting discount locally
func (s *Service) ApplyToSubscription(ctx context.Context, subscription *domain.Subscription, couponCode string) (*domain.Discount, error) {
	code := couponCode
	payload, err := s.provider.UpdateSubscription(ctx, subscription.ProviderID, ports.UpdateSubscriptionRequest{
		CustomerID: subscription.Payer.ProviderID(),
		Coupon:     &code,
	})
	if err != nil {
		return nil, fmt.Errorf("apply coupon %q to subscription %q: %w", couponCode, subscription.ProviderID, err)
	}
	discountPayload, ok := payload["discount"].(map[string]interface{})
	if !ok {
		return nil, domain.MissingField("subscription", "discount")
	}

	discount := subscription.Discount
	if discount == nil {
		discount = domain.NewDiscount()
		discount.Subscription = subscription
		subscription.Discount = discount
	}
	if err := populator.Discount(discount, discountPayload); err != nil {
		return nil, err
	}
	if err := s.discounts.Save(ctx, discount); err != nil {
		return nil, fmt.Errorf("save discount: %w", err)
	}
	return discount, nil
}

// RemoveFromCustomer deletes a customer discount remotely and locally. A
// provider 404 is swallowed; the local removal still proceeds.
func (s *Service) RemoveFromCustomer(ctx context.Context, discount *domain.Discount) error {
	if discount.Customer == nil {
		return fmt.Errorf("discount has no customer owner: %w", domain.ErrUnknownCustomer)
	}
	if err := s.provider.DeleteCustomerDiscount(ctx, discount.Customer.ProviderID()); err != nil && !domain.IsProviderNotFound(err) {
		return fmt.Errorf("delete remote discount: %w", err)
	}
	s.detach(discount)
	if err := s.discounts.Delete(ctx, discount); err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	return nil
}

// RemoveFromSubscription deletes a subscription discount remotely and
// locally. A provider 404 is swallowed; the local removal still proceeds.
func (s *Service) RemoveFromSubscription(ctx context.Context, discount *domain.Discount) error {
	if discount.Subscription == nil || discount.Subscription.Payer == nil {
		return fmt.Errorf("discount has no subscription owner: %w", domain.ErrUnknownSubscription)
	}
	if err := s.provider.DeleteSubscriptionDiscount(ctx, discount.Subscription.Payer.ProviderID(), discount.Subscription.ProviderID); err != nil && !domain.IsProviderNotFound(err) {
		return fmt.Errorf("delete remote discount: %w", err)
	}
	s.detach(discount)
	if err := s.discounts.Delete(ctx, discount); err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	return nil
}

func (s *Service) detach(discount *domain.Discount) {
	if discount.Customer != nil {
		discount.Customer.SetDiscount(nil)
	}
	if discount.Subscription != nil {
		discount.Subscription.Discount = nil
	}
}
