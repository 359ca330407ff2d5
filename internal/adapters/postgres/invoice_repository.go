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

// InvoiceRepository persists invoice mirrors together with their line items
type InvoiceRepository struct {
	db            *DBExecutor
	customers     *CustomerRepository
	subscriptions *SubscriptionRepository
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *DBExecutor, customers *CustomerRepository, subscriptions *SubscriptionRepository) *InvoiceRepository {
	return &InvoiceRepository{db: db, customers: customers, subscriptions: subscriptions}
}

// FindByProviderID loads an invoice with its payer, subscription and line
// items hydrated. Returns (nil, nil) when no invoice carries the provider id.
func (r *InvoiceRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var taxPercent pgtype.Numeric
	var subscriptionID *uuid.UUID
	var payerProviderID string

	err := r.db.GetDB().QueryRow(ctx,
		`SELECT i.id, i.provider_id, i.subscription_id, i.period_start, i.period_end,
		        i.starting_balance, i.ending_balance, i.subtotal, i.total, i.application_fee,
		        i.tax, i.tax_percent, i.amount_due, i.currency, i.closed, i.paid, i.forgiven,
		        i.attempt_count, i.description, i.vat_number, i.vat_country, i.export_url,
		        i.provider_created_at, c.provider_id
		 FROM invoices i
		 JOIN billing_customers c ON c.id = i.customer_id
		 WHERE i.provider_id = $1`,
		providerID,
	).Scan(&invoice.ID, &invoice.ProviderID, &subscriptionID, &invoice.PeriodStart, &invoice.PeriodEnd,
		&invoice.StartingBalance, &invoice.EndingBalance, &invoice.Subtotal, &invoice.Total,
		&invoice.ApplicationFee, &invoice.Tax, &taxPercent, &invoice.AmountDue, &invoice.Currency,
		&invoice.Closed, &invoice.Paid, &invoice.Forgiven, &invoice.AttemptCount,
		&invoice.Description, &invoice.VatNumber, &invoice.VatCountry, &invoice.ExportURL,
		&invoice.CreatedAt, &payerProviderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	invoice.TaxPercent, err = pgNumericToDecimalPtr(taxPercent)
	if err != nil {
		return nil, err
	}

	payer, err := r.customers.FindByProviderID(ctx, payerProviderID)
	if err != nil {
		return nil, err
	}
	invoice.Payer = payer

	if subscriptionID != nil {
		row := r.db.GetDB().QueryRow(ctx,
			`SELECT `+subscriptionColumns+`
			 FROM subscriptions s
			 JOIN billing_customers c ON c.id = s.customer_id
			 WHERE s.id = $1`,
			*subscriptionID,
		)
		invoice.Subscription, err = r.subscriptions.scanSubscription(ctx, row)
		if err != nil {
			return nil, err
		}
	}

	if err := r.hydrateLineItems(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// Save upserts the invoice row and rewrites its line items in one transaction
func (r *InvoiceRepository) Save(ctx context.Context, invoice *domain.Invoice) error {
	if invoice.Payer == nil {
		return fmt.Errorf("invoice %q has no payer: %w", invoice.ProviderID, domain.ErrUnknownCustomer)
	}
	taxPercent, err := nullNumeric(invoice.TaxPercent)
	if err != nil {
		return err
	}
	var subscriptionID *uuid.UUID
	if invoice.Subscription != nil {
		subscriptionID = &invoice.Subscription.ID
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO invoices (id, provider_id, customer_id, subscription_id, period_start, period_end,
			                       starting_balance, ending_balance, subtotal, total, application_fee,
			                       tax, tax_percent, amount_due, currency, closed, paid, forgiven,
			                       attempt_count, description, vat_number, vat_country, export_url,
			                       provider_created_at)
			 VALUES ($1, $2, (SELECT id FROM billing_customers WHERE provider_id = $3), $4, $5, $6,
			         $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
			 ON CONFLICT (id) DO UPDATE SET
			   provider_id = EXCLUDED.provider_id,
			   subscription_id = EXCLUDED.subscription_id,
			   period_start = EXCLUDED.period_start,
			   period_end = EXCLUDED.period_end,
			   starting_balance = EXCLUDED.starting_balance,
			   ending_balance = EXCLUDED.ending_balance,
			   subtotal = EXCLUDED.subtotal,
			   total = EXCLUDED.total,
			   application_fee = EXCLUDED.application_fee,
			   tax = EXCLUDED.tax,
			   tax_percent = EXCLUDED.tax_percent,
			   amount_due = EXCLUDED.amount_due,
			   currency = EXCLUDED.currency,
			   closed = EXCLUDED.closed,
			   paid = EXCLUDED.paid,
			   forgiven = EXCLUDED.forgiven,
			   attempt_count = EXCLUDED.attempt_count,
			   description = EXCLUDED.description,
			   vat_number = EXCLUDED.vat_number,
			   vat_country = EXCLUDED.vat_country,
			   export_url = EXCLUDED.export_url,
			   provider_created_at = EXCLUDED.provider_created_at`,
			invoice.ID, invoice.ProviderID, invoice.Payer.ProviderID(), subscriptionID,
			invoice.PeriodStart, invoice.PeriodEnd, invoice.StartingBalance, invoice.EndingBalance,
			invoice.Subtotal, invoice.Total, invoice.ApplicationFee, invoice.Tax, taxPercent,
			invoice.AmountDue, invoice.Currency, invoice.Closed, invoice.Paid, invoice.Forgiven,
			invoice.AttemptCount, invoice.Description, invoice.VatNumber, invoice.VatCountry,
			invoice.ExportURL, invoice.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("save invoice %q: %w", invoice.ProviderID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, invoice.ID); err != nil {
			return fmt.Errorf("clear invoice lines: %w", err)
		}
		for _, item := range invoice.LineItems {
			_, err := tx.Exec(ctx,
				`INSERT INTO invoice_line_items (id, invoice_id, amount, currency, description)
				 VALUES ($1, $2, $3, $4, $5)`,
				item.ID, invoice.ID, item.Amount, item.Currency, item.Description,
			)
			if err != nil {
				return fmt.Errorf("save invoice line: %w", err)
			}
		}
		return nil
	})
}

func (r *InvoiceRepository) hydrateLineItems(ctx context.Context, invoice *domain.Invoice) error {
	rows, err := r.db.GetDB().Query(ctx,
		`SELECT id, amount, currency, description FROM invoice_line_items WHERE invoice_id = $1`,
		invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &domain.LineItem{}
		if err := rows.Scan(&item.ID, &item.Amount, &item.Currency, &item.Description); err != nil {
			return fmt.Errorf("scan invoice line: %w", err)
		}
		invoice.AddLineItem(item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate invoice lines: %w", err)
	}
	return nil
}
