package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// PlanRepository persists plan mirrors together with their metadata entries
type PlanRepository struct {
	db *DBExecutor
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *DBExecutor) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, provider_id, name, amount, currency, billing_interval,
	interval_count, trial_period_days, provider_created_at, features, active`

// FindByProviderID returns the active plan carrying the provider id, or
// (nil, nil). Inactive rows are excluded: once a provider id is reused the
// bare id only identifies the plan that currently exists remotely.
func (r *PlanRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Plan, error) {
	row := r.db.GetDB().QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE provider_id = $1 AND active`,
		providerID,
	)
	return r.scanPlan(ctx, row)
}

// FindByNaturalKey returns the plan with the given composite key, or (nil, nil)
func (r *PlanRepository) FindByNaturalKey(ctx context.Context, providerID string, createdAt time.Time) (*domain.Plan, error) {
	row := r.db.GetDB().QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE provider_id = $1 AND provider_created_at = $2`,
		providerID, createdAt,
	)
	return r.scanPlan(ctx, row)
}

// ListActive returns all active plans
func (r *PlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	rows, err := r.db.GetDB().Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE active ORDER BY provider_created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		plan, err := r.scanPlanRow(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	for _, plan := range plans {
		if err := r.hydrateMetadata(ctx, plan); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// Save upserts the plan row and replaces its metadata entries in one
// transaction
func (r *PlanRepository) Save(ctx context.Context, plan *domain.Plan) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO plans (id, provider_id, name, amount, currency, billing_interval,
			                    interval_count, trial_period_days, provider_created_at, features, active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO UPDATE SET
			   provider_id = EXCLUDED.provider_id,
			   name = EXCLUDED.name,
			   amount = EXCLUDED.amount,
			   currency = EXCLUDED.currency,
			   billing_interval = EXCLUDED.billing_interval,
			   interval_count = EXCLUDED.interval_count,
			   trial_period_days = EXCLUDED.trial_period_days,
			   provider_created_at = EXCLUDED.provider_created_at,
			   features = EXCLUDED.features,
			   active = EXCLUDED.active`,
			plan.ID, plan.ProviderID, plan.Name, plan.Amount, plan.Currency,
			string(plan.Interval), plan.IntervalCount, plan.TrialPeriodDays,
			plan.CreatedAt, plan.Features, plan.Active,
		)
		if err != nil {
			return fmt.Errorf("save plan %q: %w", plan.ProviderID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM plan_metadata WHERE plan_id = $1`, plan.ID); err != nil {
			return fmt.Errorf("clear plan metadata: %w", err)
		}
		for _, m := range plan.Metadata {
			_, err := tx.Exec(ctx,
				`INSERT INTO plan_metadata (id, plan_id, key, value) VALUES ($1, $2, $3, $4)`,
				m.ID, plan.ID, m.Key, m.Value,
			)
			if err != nil {
				return fmt.Errorf("save plan metadata %q: %w", m.Key, err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PlanRepository) scanPlan(ctx context.Context, row rowScanner) (*domain.Plan, error) {
	plan, err := r.scanPlanRow(row)
	if err != nil || plan == nil {
		return plan, err
	}
	if err := r.hydrateMetadata(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *PlanRepository) scanPlanRow(row rowScanner) (*domain.Plan, error) {
	plan := &domain.Plan{}
	var interval string
	var trialDays pgtype.Int4

	err := row.Scan(&plan.ID, &plan.ProviderID, &plan.Name, &plan.Amount, &plan.Currency,
		&interval, &plan.IntervalCount, &trialDays, &plan.CreatedAt, &plan.Features, &plan.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}

	plan.Interval = domain.BillingInterval(interval)
	if trialDays.Valid {
		days := int(trialDays.Int32)
		plan.TrialPeriodDays = &days
	}
	return plan, nil
}

func (r *PlanRepository) hydrateMetadata(ctx context.Context, plan *domain.Plan) error {
	rows, err := r.db.GetDB().Query(ctx,
		`SELECT id, key, value FROM plan_metadata WHERE plan_id = $1 ORDER BY key`,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("query plan metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &domain.PlanMetadata{}
		if err := rows.Scan(&m.ID, &m.Key, &m.Value); err != nil {
			return fmt.Errorf("scan plan metadata: %w", err)
		}
		plan.AddMetadata(m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate plan metadata: %w", err)
	}
	return nil
}
