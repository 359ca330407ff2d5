// Package subscription manages the lifecycle of provider subscriptions and
// keeps their local mirrors current. Mutations go through the provider first;
// the mirror is written from the payload the provider answers with, so local
// state never runs ahead of remote state.
package subscription

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/populator"
)

// Service synchronizes subscription mirrors
type Service struct {
	subscriptions ports.SubscriptionRepository
	billables     ports.BillableRepository
	provider      ports.ProviderClient
	logger        ports.Logger
}

// NewService creates a new subscription service
func NewService(
	subscriptions ports.SubscriptionRepository,
	billables ports.BillableRepository,
	provider ports.ProviderClient,
	logger ports.Logger,
) *Service {
	return &Service{
		subscriptions: subscriptions,
		billables:     billables,
		provider:      provider,
		logger:        logger,
	}
}

// SyncFromEvent applies a provider subscription event to the local mirror.
//
// Creation events are not recognized: subscriptions are always created
// synchronously by this application, so a webhook creation carries nothing
// the mirror does not already have. A subscription unknown locally is
// skipped. An update whose payload carries a non-null ended_at is treated
// like a deletion; the provider reports the final state of a subscription
// both ways depending on how it ended.
func (s *Service) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
	default:
		return domain.Ignored(), nil
	}

	providerID, ok := event.Object["id"].(string)
	if !ok || providerID == "" {
		return domain.SyncOutcome{}, domain.MissingField("subscription", "id")
	}

	subscription, err := s.subscriptions.FindByProviderID(ctx, providerID)
	if err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("find subscription %q: %w", providerID, err)
	}
	if subscription == nil {
		return domain.Skipped(fmt.Sprintf("no local subscription %q", providerID)), nil
	}

	if event.IsDeletion() || event.Object["ended_at"] != nil {
		if err := s.remove(ctx, subscription); err != nil {
			return domain.SyncOutcome{}, err
		}
		return domain.Processed(fmt.Sprintf("subscription %q removed", providerID)), nil
	}

	if err := populator.Subscription(subscription, event.Object); err != nil {
		return domain.SyncOutcome{}, err
	}
	if err := s.subscriptions.Save(ctx, subscription); err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("save subscription %q: %w", providerID, err)
	}

	return domain.Processed(fmt.Sprintf("subscription %q synchronized", providerID)), nil
}

// Create subscribes a payer to a plan on the provider and mirrors the result
func (s *Service) Create(ctx context.Context, payer domain.Customer, plan *domain.Plan, quantity int, taxPercent decimal.Decimal) (*domain.Subscription, error) {
	payload, err := s.provider.CreateSubscription(ctx, ports.CreateSubscriptionRequest{
		CustomerID: payer.ProviderID(),
		PlanID:     plan.ProviderID,
		Quantity:   quantity,
		TaxPercent: taxPercent.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription for customer %q: %w", payer.ProviderID(), err)
	}

	subscription := domain.NewSubscription()
	subscription.Payer = payer
	subscription.Plan = plan
	if err := populator.Subscription(subscription, payload); err != nil {
		return nil, err
	}
	if err := s.subscriptions.Save(ctx, subscription); err != nil {
		return nil, fmt.Errorf("save subscription %q: %w", subscription.ProviderID, err)
	}

	if billable, ok := payer.(domain.Billable); ok {
		billable.SetSubscription(subscription)
	}

	s.logger.Info("subscription created",
		ports.String("customer", payer.ProviderID()),
		ports.String("plan", plan.ProviderID),
		ports.String("subscription", subscription.ProviderID))
	return subscription, nil
}

// Cancel ends a subscription on the provider. With atPeriodEnd the
// subscription keeps running until the paid period ends and the mirror keeps
// the row with its cancellation date; otherwise the row is removed outright.
func (s *Service) Cancel(ctx context.Context, subscription *domain.Subscription, atPeriodEnd bool) error {
	payload, err := s.provider.CancelSubscription(ctx, subscription.ProviderID, subscription.Payer.ProviderID(), atPeriodEnd)
	if err != nil && !domain.IsProviderNotFound(err) {
		return fmt.Errorf("cancel subscription %q: %w", subscription.ProviderID, err)
	}

	if !atPeriodEnd || err != nil {
		return s.remove(ctx, subscription)
	}

	if err := populator.Subscription(subscription, payload); err != nil {
		return err
	}
	if err := s.subscriptions.Save(ctx, subscription); err != nil {
		return fmt.Errorf("save subscription %q: %w", subscription.ProviderID, err)
	}
	return nil
}

// ModifyPlan moves a subscription to another plan
func (s *Service) ModifyPlan(ctx context.Context, subscription *domain.Subscription, plan *domain.Plan, prorate bool) error {
	planID := plan.ProviderID
	payload, err := s.provider.UpdateSubscription(ctx, subscription.ProviderID, ports.UpdateSubscriptionRequest{
		CustomerID: subscription.Payer.ProviderID(),
		PlanID:     &planID,
		Prorate:    &prorate,
	})
	if err != nil {
		return fmt.Errorf("change plan of subscription %q: %w", subscription.ProviderID, err)
	}

	subscription.Plan = plan
	if err := populator.Subscription(subscription, payload); err != nil {
		return err
	}
	if err := s.subscriptions.Save(ctx, subscription); err != nil {
		return fmt.Errorf("save subscription %q: %w", subscription.ProviderID, err)
	}
	return nil
}

// ModifyQuantity changes the billed quantity of a subscription
func (s *Service) ModifyQuantity(ctx context.Context, subscription *domain.Subscription, quantity int, prorate bool) error {
	payload, err := s.provider.UpdateSubscription(ctx, subscription.ProviderID, ports.UpdateSubscriptionRequest{
		CustomerID: subscription.Payer.ProviderID(),
		Quantity:   &quantity,
		Prorate:    &prorate,
	})
	if err != nil {
		return fmt.Errorf("change quantity of subscription %q: %w", subscription.ProviderID, err)
	}

	if err := populator.Subscription(subscription, payload); err != nil {
		return err
	}
	if err := s.subscriptions.Save(ctx, subscription); err != nil {
		return fmt.Errorf("save subscription %q: %w", subscription.ProviderID, err)
	}
	return nil
}

// remove detaches the subscription from whoever it bills, then deletes the row
func (s *Service) remove(ctx context.Context, subscription *domain.Subscription) error {
	billable, err := s.billables.FindBySubscription(ctx, subscription)
	if err != nil {
		return fmt.Errorf("find billable of subscription %q: %w", subscription.ProviderID, err)
	}
	if billable != nil {
		billable.SetSubscription(nil)
		if err := s.billables.Save(ctx, billable); err != nil {
			return fmt.Errorf("detach subscription %q: %w", subscription.ProviderID, err)
		}
	}
	if err := s.subscriptions.Delete(ctx, subscription); err != nil {
		return fmt.Errorf("delete subscription %q: %w", subscription.ProviderID, err)
	}
	return nil
}
