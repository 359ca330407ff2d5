// Package plan keeps the local plan mirror in step with the provider.
//
// Plans are created through the provider's UI, never by this application, so
// the sync path handles creations as well as updates. Deletion events
// deactivate the local row instead of removing it: subscriptions keep
// referencing the plan they were sold on.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/populator"
)

// Service synchronizes plan mirrors
type Service struct {
	plans    ports.PlanRepository
	provider ports.ProviderClient
	logger   ports.Logger
}

// NewService creates a new plan service
func NewService(plans ports.PlanRepository, provider ports.ProviderClient, logger ports.Logger) *Service {
	return &Service{
		plans:    plans,
		provider: provider,
		logger:   logger,
	}
}

func recognized(eventType string) bool {
	switch eventType {
	case "plan.created", "plan.updated", "plan.deleted":
		return true
	}
	return false
}

// SyncFromEvent reconciles the local plan mirror with a provider plan event
func (s *Service) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	if !recognized(event.Type) {
		return domain.Ignored(), nil
	}

	providerID, ok := event.Object["id"].(string)
	if !ok || providerID == "" {
		return domain.SyncOutcome{}, domain.MissingField("plan", "id")
	}
	createdAt, err := resourceCreatedAt(event.Object)
	if err != nil {
		return domain.SyncOutcome{}, err
	}

	plan, err := s.plans.FindByNaturalKey(ctx, providerID, createdAt)
	if err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("find plan %q: %w", providerID, err)
	}

	if event.IsDeletion() {
		if plan == nil {
			return domain.Skipped(fmt.Sprintf("no local plan %q to deactivate", providerID)), nil
		}
		plan.Active = false
		if err := s.plans.Save(ctx, plan); err != nil {
			return domain.SyncOutcome{}, fmt.Errorf("deactivate plan %q: %w", providerID, err)
		}
		s.logger.Info("plan deactivated from provider event",
			ports.String("provider_id", providerID))
		return domain.Processed(fmt.Sprintf("plan %q deactivated", providerID)), nil
	}

	// A row that already exists for a creation event was created synchronously
	// by the application path; re-populating from webhook data delivered out
	// of order could clobber fresher fields
	if plan != nil && event.IsCreation() {
		return domain.Skipped(fmt.Sprintf("plan %q already exists locally", providerID)), nil
	}

	if plan == nil {
		plan = domain.NewPlan()
	}
	if err := populator.Plan(plan, event.Object); err != nil {
		return domain.SyncOutcome{}, err
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("save plan %q: %w", providerID, err)
	}

	return domain.Processed(fmt.Sprintf("plan %q synchronized", providerID)), nil
}

// Deactivate marks a plan inactive, optionally deleting it on the provider.
// A 404 from the provider is swallowed: the plan is already gone remotely but
// still has to be deactivated locally.
func (s *Service) Deactivate(ctx context.Context, plan *domain.Plan, deleteRemote bool) error {
	if deleteRemote {
		if err := s.provider.DeletePlan(ctx, plan.ProviderID); err != nil && !domain.IsProviderNotFound(err) {
			return fmt.Errorf("delete remote plan %q: %w", plan.ProviderID, err)
		}
	}

	plan.Active = false
	if err := s.plans.Save(ctx, plan); err != nil {
		return fmt.Errorf("deactivate plan %q: %w", plan.ProviderID, err)
	}

	s.logger.Info("plan deactivated",
		ports.String("provider_id", plan.ProviderID),
		ports.Bool("deleted_remotely", deleteRemote))
	return nil
}

// SyncAll imports every plan defined on the provider. Useful when installing
// the mirror for the first time; expensive with many plans.
func (s *Service) SyncAll(ctx context.Context) error {
	payloads, err := s.provider.ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("list provider plans: %w", err)
	}

	for _, payload := range payloads {
		providerID, _ := payload["id"].(string)
		createdAt, err := resourceCreatedAt(payload)
		if err != nil {
			return err
		}

		plan, err := s.plans.FindByNaturalKey(ctx, providerID, createdAt)
		if err != nil {
			return fmt.Errorf("find plan %q: %w", providerID, err)
		}
		if plan == nil {
			plan = domain.NewPlan()
		}
		if err := populator.Plan(plan, payload); err != nil {
			return err
		}
		if err := s.plans.Save(ctx, plan); err != nil {
			return fmt.Errorf("save plan %q: %w", providerID, err)
		}
	}

	s.logger.Info("plans imported from provider", ports.Int("count", len(payloads)))
	return nil
}

// GetByProviderID returns the active plan with the given provider id
func (s *Service) GetByProviderID(ctx context.Context, providerID string) (*domain.Plan, error) {
	return s.plans.FindByProviderID(ctx, providerID)
}

func resourceCreatedAt(payload map[string]interface{}) (time.Time, error) {
	switch n := payload["created"].(type) {
	case float64:
		return time.Unix(int64(n), 0).UTC(), nil
	case int64:
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, domain.MissingField("plan", "created")
}
