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

// DiscountRepository persists discount mirrors
type DiscountRepository struct {
	db *DBExecutor
}

// NewDiscountRepository creates a new discount repository
func NewDiscountRepository(db *DBExecutor) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// FindByCustomer returns the discount attached to a customer, or (nil, nil)
func (r *DiscountRepository) FindByCustomer(ctx context.Context, customer domain.Customer) (*domain.Discount, error) {
	discount := &domain.Discount{Customer: customer}
	row := r.db.GetDB().QueryRow(ctx,
		`SELECT d.id, d.coupon_code, d.amount_off, d.currency, d.percent_off, d.started_at, d.end_at
		 FROM discounts d
		 JOIN billing_customers c ON c.id = d.customer_id
		 WHERE c.provider_id = $1`,
		customer.ProviderID(),
	)
	return scanDiscount(discount, row)
}

// FindBySubscription returns the discount attached to a subscription, or
// (nil, nil)
func (r *DiscountRepository) FindBySubscription(ctx context.Context, subscription *domain.Subscription) (*domain.Discount, error) {
	discount := &domain.Discount{Subscription: subscription}
	row := r.db.GetDB().QueryRow(ctx,
		`SELECT id, coupon_code, amount_off, currency, percent_off, started_at, end_at
		 FROM discounts WHERE subscription_id = $1`,
		subscription.ID,
	)
	return scanDiscount(discount, row)
}

// Save upserts a discount row under its single owner
func (r *DiscountRepository) Save(ctx context.Context, discount *domain.Discount) error {
	percentOff, err := nullNumeric(discount.Coupon.PercentOff)
	if err != nil {
		return err
	}

	var customerID, subscriptionID interface{}
	switch {
	case discount.Subscription != nil:
		subscriptionID = discount.Subscription.ID
	case discount.Customer != nil:
		var id uuid.UUID
		err := r.db.GetDB().QueryRow(ctx,
			`SELECT id FROM billing_customers WHERE provider_id = $1`,
			discount.Customer.ProviderID(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("resolve discount owner: %w", err)
		}
		customerID = id
	default:
		return fmt.Errorf("discount has no owner: %w", domain.ErrUnknownCustomer)
	}

	_, err = r.db.GetDB().Exec(ctx,
		`INSERT INTO discounts (id, customer_id, subscription_id, coupon_code, amount_off, currency, percent_off, started_at, end_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   coupon_code = EXCLUDED.coupon_code,
		   amount_off = EXCLUDED.amount_off,
		   currency = EXCLUDED.currency,
		   percent_off = EXCLUDED.percent_off,
		   started_at = EXCLUDED.started_at,
		   end_at = EXCLUDED.end_at`,
		discount.ID, customerID, subscriptionID, discount.Coupon.Code,
		discount.Coupon.AmountOff, discount.Coupon.Currency, percentOff,
		discount.StartedAt, nullTimestamp(discount.EndAt),
	)
	if err != nil {
		return fmt.Errorf("save discount: %w", err)
	}
	return nil
}

// Delete removes a discount row
func (r *DiscountRepository) Delete(ctx context.Context, discount *domain.Discount) error {
	if _, err := r.db.GetDB().Exec(ctx, `DELETE FROM discounts WHERE id = $1`, discount.ID); err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	return nil
}

func scanDiscount(discount *domain.Discount, row rowScanner) (*domain.Discount, error) {
	var percentOff pgtype.Numeric

	err := row.Scan(&discount.ID, &discount.Coupon.Code, &discount.Coupon.AmountOff,
		&discount.Coupon.Currency, &percentOff, &discount.StartedAt, &discount.EndAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan discount: %w", err)
	}

	discount.Coupon.PercentOff, err = pgNumericToDecimalPtr(percentOff)
	if err != nil {
		return nil, err
	}
	return discount, nil
}
