package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// CardRepository persists card mirrors
type CardRepository struct {
	db        *DBExecutor
	customers *CustomerRepository
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *DBExecutor, customers *CustomerRepository) *CardRepository {
	return &CardRepository{db: db, customers: customers}
}

// FindByProviderID loads a card with its owning customer hydrated. Returns
// (nil, nil) when no card carries the provider id.
func (r *CardRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Card, error) {
	card := &domain.Card{}
	var customerProviderID string

	err := r.db.GetDB().QueryRow(ctx,
		`SELECT cd.id, cd.provider_id, cd.brand, cd.exp_month, cd.exp_year, cd.last4, cd.country,
		        c.provider_id
		 FROM cards cd
		 JOIN billing_customers c ON c.id = cd.customer_id
		 WHERE cd.provider_id = $1`,
		providerID,
	).Scan(&card.ID, &card.ProviderID, &card.Brand, &card.ExpMonth, &card.ExpYear,
		&card.Last4, &card.Country, &customerProviderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query card: %w", err)
	}

	customer, err := r.customers.FindByProviderID(ctx, customerProviderID)
	if err != nil {
		return nil, err
	}
	card.Customer = customer
	return card, nil
}

// FindByCustomer returns the customer's stored card, or (nil, nil)
func (r *CardRepository) FindByCustomer(ctx context.Context, customer domain.Customer) (*domain.Card, error) {
	card := &domain.Card{Customer: customer}

	err := r.db.GetDB().QueryRow(ctx,
		`SELECT cd.id, cd.provider_id, cd.brand, cd.exp_month, cd.exp_year, cd.last4, cd.country
		 FROM cards cd
		 JOIN billing_customers c ON c.id = cd.customer_id
		 WHERE c.provider_id = $1`,
		customer.ProviderID(),
	).Scan(&card.ID, &card.ProviderID, &card.Brand, &card.ExpMonth, &card.ExpYear,
		&card.Last4, &card.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query card: %w", err)
	}
	return card, nil
}

// Save upserts a card row. The owner is resolved by provider id so any
// domain.Customer implementation works.
func (r *CardRepository) Save(ctx context.Context, card *domain.Card) error {
	if card.Customer == nil {
		return fmt.Errorf("card %q has no owner: %w", card.ProviderID, domain.ErrUnknownCustomer)
	}

	tag, err := r.db.GetDB().Exec(ctx,
		`INSERT INTO cards (id, provider_id, customer_id, brand, exp_month, exp_year, last4, country)
		 VALUES ($1, $2, (SELECT id FROM billing_customers WHERE provider_id = $3), $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   provider_id = EXCLUDED.provider_id,
		   brand = EXCLUDED.brand,
		   exp_month = EXCLUDED.exp_month,
		   exp_year = EXCLUDED.exp_year,
		   last4 = EXCLUDED.last4,
		   country = EXCLUDED.country`,
		card.ID, card.ProviderID, card.Customer.ProviderID(),
		card.Brand, card.ExpMonth, card.ExpYear, card.Last4, card.Country,
	)
	if err != nil {
		return fmt.Errorf("save card %q: %w", card.ProviderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save card %q: owner not found", card.ProviderID)
	}
	return nil
}

// Delete removes a card row
func (r *CardRepository) Delete(ctx context.Context, card *domain.Card) error {
	if _, err := r.db.GetDB().Exec(ctx, `DELETE FROM cards WHERE id = $1`, card.ID); err != nil {
		return fmt.Errorf("delete card %q: %w", card.ProviderID, err)
	}
	return nil
}
