// Package card manages stored card mirrors. Cards are attached through the
// application (which holds the provider token); webhooks only carry updates
// for cards we already know about, so the sync path is update-only.
package card

import (
	"context"
	"fmt"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/populator"
)

// Service synchronizes card mirrors
type Service struct {
	cards    ports.CardRepository
	provider ports.ProviderClient
	logger   ports.Logger
}

// NewService creates a new card service
func NewService(cards ports.CardRepository, provider ports.ProviderClient, logger ports.Logger) *Service {
	return &Service{
		cards:    cards,
		provider: provider,
		logger:   logger,
	}
}

// SyncFromEvent applies a provider card event to the local mirror. Only
// update events are recognized; a card unknown locally is skipped because it
// belongs to a customer this application does not manage.
func (s *Service) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	switch event.Type {
	case "customer.card.updated", "customer.source.updated":
	default:
		return domain.Ignored(), nil
	}

	providerID, ok := event.Object["id"].(string)
	if !ok || providerID == "" {
		return domain.SyncOutcome{}, domain.MissingField("card", "id")
	}

	card, err := s.cards.FindByProviderID(ctx, providerID)
	if err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("find card %q: %w", providerID, err)
	}
	if card == nil {
		return domain.Skipped(fmt.Sprintf("no local card %q", providerID)), nil
	}

	if err := populator.Card(card, event.Object); err != nil {
		return domain.SyncOutcome{}, err
	}
	if err := s.cards.Save(ctx, card); err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("save card %q: %w", providerID, err)
	}

	return domain.Processed(fmt.Sprintf("card %q synchronized", providerID)), nil
}

// AttachToCustomer exchanges a card token for a stored card on the provider
// and mirrors it locally. Any previously attached card is replaced.
func (s *Service) AttachToCustomer(ctx context.Context, customer domain.Customer, cardToken string) (*domain.Card, error) {
	token := cardToken
	payload, err := s.provider.UpdateCustomer(ctx, customer.ProviderID(), ports.UpdateCustomerRequest{
		CardToken: &token,
	})
	if err != nil {
		return nil, fmt.Errorf("attach card to customer %q: %w", customer.ProviderID(), err)
	}

	cardPayload, err := defaultCardPayload(payload)
	if err != nil {
		return nil, err
	}

	previous := customer.Card()

	card := domain.NewCard(customer)
	if err := populator.Card(card, cardPayload); err != nil {
		return nil, err
	}
	customer.SetCard(card)
	if err := s.cards.Save(ctx, card); err != nil {
		return nil, fmt.Errorf("save card %q: %w", card.ProviderID, err)
	}

	if previous != nil {
		if err := s.cards.Delete(ctx, previous); err != nil {
			return nil, fmt.Errorf("remove replaced card %q: %w", previous.ProviderID, err)
		}
	}

	s.logger.Info("card attached",
		ports.String("customer", customer.ProviderID()),
		ports.String("card", card.ProviderID))
	return card, nil
}

// Remove detaches a card from its owner and deletes it locally and remotely.
// A provider 404 is swallowed: the card may have been removed remotely first.
func (s *Service) Remove(ctx context.Context, card *domain.Card) error {
	if card.Customer != nil {
		if err := s.provider.DeleteCard(ctx, card.ProviderID, card.Customer.ProviderID()); err != nil && !domain.IsProviderNotFound(err) {
			return fmt.Errorf("delete remote card %q: %w", card.ProviderID, err)
		}
		card.Customer.SetCard(nil)
	}

	if err := s.cards.Delete(ctx, card); err != nil {
		return fmt.Errorf("delete card %q: %w", card.ProviderID, err)
	}
	return nil
}

// defaultCardPayload digs the default card out of a provider customer payload
func defaultCardPayload(customer map[string]interface{}) (map[string]interface{}, error) {
	defaultID, _ := customer["default_source"].(string)
	if defaultID == "" {
		defaultID, _ = customer["default_card"].(string)
	}
	sources, ok := customer["sources"].(map[string]interface{})
	if !ok {
		sources, ok = customer["cards"].(map[string]interface{})
	}
	if !ok {
		return nil, domain.MissingField("customer", "sources")
	}
	data, _ := sources["data"].([]interface{})
	for _, raw := range data {
		cardPayload, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if id, _ := cardPayload["id"].(string); id == defaultID {
			return cardPayload, nil
		}
	}
	return nil, domain.MissingField("customer", "default_source")
}
