package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// SubscriptionRepository persists subscription mirrors
type SubscriptionRepository struct {
	db        *DBExecutor
	plans     *PlanRepository
	customers *CustomerRepository
	discounts *DiscountRepository
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DBExecutor, plans *PlanRepository, customers *CustomerRepository, discounts *DiscountRepository) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, plans: plans, customers: customers, discounts: discounts}
}

const subscriptionColumns = `s.id, s.provider_id, s.plan_id, s.quantity, s.tax_percent,
	s.current_period_start, s.current_period_end, s.trial_start, s.trial_end,
	s.cancelled_at, s.ended_at, s.status, c.provider_id`

// FindByProviderID loads a subscription with its plan, payer and discount
// hydrated. Returns (nil, nil) when no subscription carries the provider id.
func (r *SubscriptionRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Subscription, error) {
	row := r.db.GetDB().QueryRow(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 JOIN billing_customers c ON c.id = s.customer_id
		 WHERE s.provider_id = $1`,
		providerID,
	)
	return r.scanSubscription(ctx, row)
}

// FindByPayer returns all subscriptions paid by a customer
func (r *SubscriptionRepository) FindByPayer(ctx context.Context, payer domain.Customer) ([]*domain.Subscription, error) {
	rows, err := r.db.GetDB().Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 JOIN billing_customers c ON c.id = s.customer_id
		 WHERE c.provider_id = $1`,
		payer.ProviderID(),
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	type pending struct {
		subscription *domain.Subscription
		planID       *uuid.UUID
	}
	var found []pending
	for rows.Next() {
		subscription, planID, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, pending{subscription, planID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	subscriptions := make([]*domain.Subscription, 0, len(found))
	for _, p := range found {
		p.subscription.Payer = payer
		if err := r.hydrate(ctx, p.subscription, p.planID); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, p.subscription)
	}
	return subscriptions, nil
}

// Save upserts a subscription row. Payer and plan must already be persisted.
func (r *SubscriptionRepository) Save(ctx context.Context, subscription *domain.Subscription) error {
	if subscription.Payer == nil {
		return fmt.Errorf("subscription %q has no payer: %w", subscription.ProviderID, domain.ErrUnknownCustomer)
	}

	taxPercent, err := decimalToNumeric(subscription.TaxPercent)
	if err != nil {
		return err
	}
	var planID *uuid.UUID
	if subscription.Plan != nil {
		planID = &subscription.Plan.ID
	}

	_, err = r.db.GetDB().Exec(ctx,
		`INSERT INTO subscriptions (id, provider_id, plan_id, customer_id, quantity, tax_percent,
		                            current_period_start, current_period_end, trial_start, trial_end,
		                            cancelled_at, ended_at, status)
		 VALUES ($1, $2, $3, (SELECT id FROM billing_customers WHERE provider_id = $4), $5, $6,
		         $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   provider_id = EXCLUDED.provider_id,
		   plan_id = EXCLUDED.plan_id,
		   quantity = EXCLUDED.quantity,
		   tax_percent = EXCLUDED.tax_percent,
		   current_period_start = EXCLUDED.current_period_start,
		   current_period_end = EXCLUDED.current_period_end,
		   trial_start = EXCLUDED.trial_start,
		   trial_end = EXCLUDED.trial_end,
		   cancelled_at = EXCLUDED.cancelled_at,
		   ended_at = EXCLUDED.ended_at,
		   status = EXCLUDED.status`,
		subscription.ID, subscription.ProviderID, planID, subscription.Payer.ProviderID(),
		subscription.Quantity, taxPercent,
		subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd,
		nullTimestamp(subscription.TrialStart), nullTimestamp(subscription.TrialEnd),
		nullTimestamp(subscription.CancelledAt), nullTimestamp(subscription.EndedAt),
		string(subscription.Status),
	)
	if err != nil {
		return fmt.Errorf("save subscription %q: %w", subscription.ProviderID, err)
	}
	return nil
}

// Delete removes a subscription row; attached discounts cascade
func (r *SubscriptionRepository) Delete(ctx context.Context, subscription *domain.Subscription) error {
	if _, err := r.db.GetDB().Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, subscription.ID); err != nil {
		return fmt.Errorf("delete subscription %q: %w", subscription.ProviderID, err)
	}
	return nil
}

func (r *SubscriptionRepository) scanSubscription(ctx context.Context, row rowScanner) (*domain.Subscription, error) {
	subscription, planID, err := scanSubscriptionRow(row)
	if err != nil || subscription == nil {
		return subscription, err
	}
	if err := r.hydrate(ctx, subscription, planID); err != nil {
		return nil, err
	}
	return subscription, nil
}

// scanSubscriptionRow decodes one row; the payer provider id is stashed in
// the Payer slot as a shallow customer until hydrate resolves it
func scanSubscriptionRow(row rowScanner) (*domain.Subscription, *uuid.UUID, error) {
	subscription := &domain.Subscription{}
	var planID *uuid.UUID
	var taxPercent pgtype.Numeric
	var payerProviderID string

	err := row.Scan(&subscription.ID, &subscription.ProviderID, &planID,
		&subscription.Quantity, &taxPercent,
		&subscription.CurrentPeriodStart, &subscription.CurrentPeriodEnd,
		&subscription.TrialStart, &subscription.TrialEnd,
		&subscription.CancelledAt, &subscription.EndedAt,
		(*string)(&subscription.Status), &payerProviderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan subscription: %w", err)
	}

	subscription.TaxPercent, err = pgNumericToDecimal(taxPercent)
	if err != nil {
		return nil, nil, err
	}

	payer := &domain.CustomerAccount{}
	payer.SetProviderID(payerProviderID)
	subscription.Payer = payer
	return subscription, planID, nil
}

func (r *SubscriptionRepository) hydrate(ctx context.Context, subscription *domain.Subscription, planID *uuid.UUID) error {
	if _, shallow := subscription.Payer.(*domain.CustomerAccount); shallow {
		payer, err := r.customers.FindByProviderID(ctx, subscription.Payer.ProviderID())
		if err != nil {
			return err
		}
		if payer != nil {
			subscription.Payer = payer
		}
	}

	if planID != nil {
		row := r.db.GetDB().QueryRow(ctx,
			`SELECT `+planColumns+` FROM plans WHERE id = $1`, *planID)
		plan, err := r.plans.scanPlan(ctx, row)
		if err != nil {
			return err
		}
		subscription.Plan = plan
	}

	discount, err := r.discounts.FindBySubscription(ctx, subscription)
	if err != nil {
		return err
	}
	subscription.Discount = discount
	return nil
}
