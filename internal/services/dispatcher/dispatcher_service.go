// Package dispatcher receives raw webhook bodies and routes the decoded
// events to the matching sync service. It is the only place that decides
// whether the provider should redeliver an event.
package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/pkg/observability"
)

// Syncer applies a single provider event to the local mirror
type Syncer interface {
	SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error)
}

// Dispatcher parses, validates and routes provider webhook events
type Dispatcher struct {
	provider         ports.ProviderClient
	plans            Syncer
	cards            Syncer
	discounts        Syncer
	subscriptions    Syncer
	invoices         Syncer
	validateWebhooks bool
	logger           ports.Logger
}

// NewDispatcher creates a dispatcher. With validateWebhooks the event is
// re-fetched from the provider by id before anything is applied, so a forged
// body can never reach a sync service.
func NewDispatcher(
	provider ports.ProviderClient,
	plans, cards, discounts, subscriptions, invoices Syncer,
	validateWebhooks bool,
	logger ports.Logger,
) *Dispatcher {
	return &Dispatcher{
		provider:         provider,
		plans:            plans,
		cards:            cards,
		discounts:        discounts,
		subscriptions:    subscriptions,
		invoices:         invoices,
		validateWebhooks: validateWebhooks,
		logger:           logger,
	}
}

// Dispatch handles one webhook delivery. Malformed bodies and events the
// provider does not recognize are dropped without error; answering them with
// a failure would only make the provider retry garbage. A retry-later result
// tells the caller to answer with a non-success status so the provider
// redelivers the event once its dependencies have arrived.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte, mode domain.Mode) (domain.DispatchResult, error) {
	event, err := domain.ParseEvent(body)
	if err != nil {
		d.logger.Warn("discarding malformed webhook body", ports.Err(err))
		observability.RecordSyncDiscarded("malformed")
		return domain.DispatchResult{Message: "malformed event discarded"}, nil
	}

	if !event.MatchesMode(mode) {
		observability.RecordSyncDiscarded("mode_mismatch")
		return domain.DispatchResult{
			Message: fmt.Sprintf("event %q ignored, delivery mode does not match endpoint", event.ID),
		}, nil
	}

	if d.validateWebhooks {
		// replace the delivered body with the event as the provider has it on
		// record; a forged body can never reach a sync service this way
		fetched, err := d.provider.GetEvent(ctx, event.ID)
		if err != nil {
			if domain.IsProviderNotFound(err) {
				d.logger.Warn("discarding event unknown to provider", ports.String("event_id", event.ID))
				observability.RecordSyncDiscarded("unknown_to_provider")
				return domain.DispatchResult{Message: "unknown event discarded"}, nil
			}
			return domain.DispatchResult{}, fmt.Errorf("fetch event %q: %w", event.ID, err)
		}
		event = fetched
	}

	outcome, err := d.route(ctx, event)
	if err != nil {
		if domain.IsRetryLater(err) {
			d.logger.Info("event deferred for redelivery",
				ports.String("event_id", event.ID),
				ports.String("type", event.Type),
				ports.Err(err))
			observability.RecordSyncDeferred(event.Type)
			return domain.DispatchResult{Message: err.Error(), Retry: true}, nil
		}
		return domain.DispatchResult{}, fmt.Errorf("sync event %q: %w", event.ID, err)
	}

	d.logger.Info("webhook event handled",
		ports.String("event_id", event.ID),
		ports.String("type", event.Type),
		ports.String("status", string(outcome.Status)))
	observability.RecordSyncEvent(event.Type, string(outcome.Status))

	message := fmt.Sprintf("event %q of type %q was received: %s", event.ID, event.Type, describe(outcome))
	return domain.DispatchResult{Message: message}, nil
}

func (d *Dispatcher) route(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	switch {
	case strings.HasPrefix(event.Type, "plan."):
		return d.plans.SyncFromEvent(ctx, event)
	case strings.HasPrefix(event.Type, "customer.discount."):
		return d.discounts.SyncFromEvent(ctx, event)
	case strings.HasPrefix(event.Type, "customer.card."), strings.HasPrefix(event.Type, "customer.source."):
		return d.cards.SyncFromEvent(ctx, event)
	case strings.HasPrefix(event.Type, "customer.subscription."):
		return d.subscriptions.SyncFromEvent(ctx, event)
	case strings.HasPrefix(event.Type, "invoice."):
		return d.invoices.SyncFromEvent(ctx, event)
	}
	return domain.Ignored(), nil
}

func describe(outcome domain.SyncOutcome) string {
	switch outcome.Status {
	case domain.SyncProcessed:
		return outcome.Message
	case domain.SyncSkipped:
		return "skipped, " + outcome.Message
	default:
		return "no handler recognized the event type"
	}
}
