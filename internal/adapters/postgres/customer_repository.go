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

// BillingCustomer is the persisted customer aggregate. It implements
// domain.Customer, domain.VatCustomer and domain.Billable so both the sync
// services and the application-facing operations can work with it.
type BillingCustomer struct {
	ID           uuid.UUID
	providerID   string
	vatNumber    string
	vatCountry   string
	card         *domain.Card
	discount     *domain.Discount
	subscription *domain.Subscription
}

// NewBillingCustomer creates an empty customer aggregate
func NewBillingCustomer() *BillingCustomer {
	return &BillingCustomer{ID: uuid.New()}
}

func (c *BillingCustomer) SetProviderID(providerID string) { c.providerID = providerID }

func (c *BillingCustomer) ProviderID() string { return c.providerID }

func (c *BillingCustomer) SetCard(card *domain.Card) { c.card = card }

func (c *BillingCustomer) Card() *domain.Card { return c.card }

func (c *BillingCustomer) SetDiscount(discount *domain.Discount) { c.discount = discount }

func (c *BillingCustomer) Discount() *domain.Discount { return c.discount }

func (c *BillingCustomer) VatNumber() string { return c.vatNumber }

func (c *BillingCustomer) VatCountry() string { return c.vatCountry }

func (c *BillingCustomer) SetVat(number, country string) {
	c.vatNumber = number
	c.vatCountry = country
}

func (c *BillingCustomer) SetSubscription(subscription *domain.Subscription) {
	c.subscription = subscription
}

func (c *BillingCustomer) Subscription() *domain.Subscription { return c.subscription }

// CustomerRepository persists BillingCustomer aggregates. The same table
// backs the billable lookup, so this type serves both the customer and the
// billable ports.
type CustomerRepository struct {
	db *DBExecutor
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *DBExecutor) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByProviderID loads a customer with its card and discount hydrated.
// Returns (nil, nil) when no customer carries the provider id.
func (r *CustomerRepository) FindByProviderID(ctx context.Context, providerID string) (domain.Customer, error) {
	customer := &BillingCustomer{}
	var vatNumber, vatCountry pgtype.Text

	err := r.db.GetDB().QueryRow(ctx,
		`SELECT id, provider_id, vat_number, vat_country
		 FROM billing_customers WHERE provider_id = $1`,
		providerID,
	).Scan(&customer.ID, &customer.providerID, &vatNumber, &vatCountry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	customer.vatNumber = vatNumber.String
	customer.vatCountry = vatCountry.String

	if err := r.hydrateCard(ctx, customer); err != nil {
		return nil, err
	}
	if err := r.hydrateDiscount(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Save upserts a customer row. Foreign aggregates implementing
// domain.Customer without being BillingCustomer rows are keyed by provider id.
func (r *CustomerRepository) Save(ctx context.Context, customer domain.Customer) error {
	bc, ok := customer.(*BillingCustomer)
	if !ok {
		_, err := r.db.GetDB().Exec(ctx,
			`INSERT INTO billing_customers (id, provider_id)
			 VALUES ($1, $2)
			 ON CONFLICT (provider_id) DO UPDATE SET updated_at = now()`,
			uuid.New(), customer.ProviderID(),
		)
		if err != nil {
			return fmt.Errorf("save customer: %w", err)
		}
		return nil
	}

	var subscriptionID *uuid.UUID
	if bc.subscription != nil {
		subscriptionID = &bc.subscription.ID
	}

	_, err := r.db.GetDB().Exec(ctx,
		`INSERT INTO billing_customers (id, provider_id, vat_number, vat_country, subscription_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   provider_id = EXCLUDED.provider_id,
		   vat_number = EXCLUDED.vat_number,
		   vat_country = EXCLUDED.vat_country,
		   subscription_id = EXCLUDED.subscription_id,
		   updated_at = now()`,
		bc.ID, bc.providerID, nullText(bc.vatNumber), nullText(bc.vatCountry), subscriptionID,
	)
	if err != nil {
		return fmt.Errorf("save customer: %w", err)
	}
	return nil
}

// BillableRepository resolves billable aggregates from the same table as
// CustomerRepository; it only exists because the two ports both want a Save
// method with different argument types
type BillableRepository struct {
	customers *CustomerRepository
}

// NewBillableRepository creates a billable repository on top of the customer
// repository
func NewBillableRepository(customers *CustomerRepository) *BillableRepository {
	return &BillableRepository{customers: customers}
}

// FindBySubscription returns the billable aggregate holding the given
// subscription, or (nil, nil) when nothing references it
func (r *BillableRepository) FindBySubscription(ctx context.Context, subscription *domain.Subscription) (domain.Billable, error) {
	customer := &BillingCustomer{}
	var vatNumber, vatCountry pgtype.Text

	err := r.customers.db.GetDB().QueryRow(ctx,
		`SELECT id, provider_id, vat_number, vat_country
		 FROM billing_customers WHERE subscription_id = $1`,
		subscription.ID,
	).Scan(&customer.ID, &customer.providerID, &vatNumber, &vatCountry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query billable: %w", err)
	}
	customer.vatNumber = vatNumber.String
	customer.vatCountry = vatCountry.String
	customer.subscription = subscription
	return customer, nil
}

// Save persists the subscription link of a billable aggregate
func (r *BillableRepository) Save(ctx context.Context, billable domain.Billable) error {
	bc, ok := billable.(*BillingCustomer)
	if !ok {
		return fmt.Errorf("unsupported billable type %T", billable)
	}
	return r.customers.Save(ctx, bc)
}

func (r *CustomerRepository) hydrateCard(ctx context.Context, customer *BillingCustomer) error {
	card := &domain.Card{Customer: customer}
	err := r.db.GetDB().QueryRow(ctx,
		`SELECT id, provider_id, brand, exp_month, exp_year, last4, country
		 FROM cards WHERE customer_id = $1`,
		customer.ID,
	).Scan(&card.ID, &card.ProviderID, &card.Brand, &card.ExpMonth, &card.ExpYear, &card.Last4, &card.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query customer card: %w", err)
	}
	customer.card = card
	return nil
}

func (r *CustomerRepository) hydrateDiscount(ctx context.Context, customer *BillingCustomer) error {
	discount := &domain.Discount{Customer: customer}
	var percentOff pgtype.Numeric

	err := r.db.GetDB().QueryRow(ctx,
		`SELECT id, coupon_code, amount_off, currency, percent_off, started_at, end_at
		 FROM discounts WHERE customer_id = $1`,
		customer.ID,
	).Scan(&discount.ID, &discount.Coupon.Code, &discount.Coupon.AmountOff,
		&discount.Coupon.Currency, &percentOff, &discount.StartedAt, &discount.EndAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query customer discount: %w", err)
	}

	discount.Coupon.PercentOff, err = pgNumericToDecimalPtr(percentOff)
	if err != nil {
		return err
	}
	customer.discount = discount
	return nil
}
