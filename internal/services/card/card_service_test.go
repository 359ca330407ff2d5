package card

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/testutil/fixtures"
	"github.com/kevin07696/billing-sync/internal/testutil/mocks"
)

func cardEvent(eventType string) *domain.Event {
	return &domain.Event{
		ID:       "evt_1",
		Type:     eventType,
		LiveMode: true,
		Object:   fixtures.CardPayload("card_1"),
	}
}

func TestService_SyncFromEvent_OnlyUpdatesRecognized(t *testing.T) {
	mockCards := new(mocks.CardRepository)
	service := NewService(mockCards, new(mocks.ProviderClient), mocks.RelaxedLogger())

	for _, eventType := range []string{"customer.card.created", "customer.card.deleted", "customer.source.created"} {
		outcome, err := service.SyncFromEvent(context.Background(), cardEvent(eventType))
		require.NoError(t, err)
		assert.Equal(t, domain.SyncIgnored, outcome.Status, eventType)
	}
	mockCards.AssertNotCalled(t, "FindByProviderID", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_UnknownCardSkipped(t *testing.T) {
	mockCards := new(mocks.CardRepository)
	service := NewService(mockCards, new(mocks.ProviderClient), mocks.RelaxedLogger())

	ctx := context.Background()
	mockCards.On("FindByProviderID", ctx, "card_1").Return(nil, nil)

	outcome, err := service.SyncFromEvent(ctx, cardEvent("customer.card.updated"))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncSkipped, outcome.Status)
	mockCards.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_UpdatePreservesOwner(t *testing.T) {
	mockCards := new(mocks.CardRepository)
	service := NewService(mockCards, new(mocks.ProviderClient), mocks.RelaxedLogger())

	ctx := context.Background()
	owner := &domain.CustomerAccount{}
	owner.SetProviderID("cus_1")
	card := domain.NewCard(owner)
	card.ProviderID = "card_1"
	card.ExpYear = 2025

	mockCards.On("FindByProviderID", ctx, "card_1").Return(card, nil)
	mockCards.On("Save", ctx, card).Return(nil)

	outcome, err := service.SyncFromEvent(ctx, cardEvent("customer.source.updated"))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
	assert.Equal(t, 2030, card.ExpYear)
	assert.Equal(t, "Visa", card.Brand)
	assert.Same(t, owner, card.Customer.(*domain.CustomerAccount))
	mockCards.AssertExpectations(t)
}

func TestService_AttachToCustomer_ReplacesPreviousCard(t *testing.T) {
	mockCards := new(mocks.CardRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockCards, mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	customer := &domain.CustomerAccount{}
	customer.SetProviderID("cus_1")
	previous := domain.NewCard(customer)
	previous.ProviderID = "card_old"
	customer.SetCard(previous)

	customerPayload := map[string]interface{}{
		"id":             "cus_1",
		"default_source": "card_new",
		"sources": map[string]interface{}{
			"data": []interface{}{fixtures.CardPayload("card_new")},
		},
	}
	mockProvider.On("UpdateCustomer", ctx, "cus_1", mock.MatchedBy(func(req ports.UpdateCustomerRequest) bool {
		return req.CardToken != nil && *req.CardToken == "tok_visa"
	})).Return(customerPayload, nil)
	mockCards.On("Save", ctx, mock.AnythingOfType("*domain.Card")).Return(nil)
	mockCards.On("Delete", ctx, previous).Return(nil)

	card, err := service.AttachToCustomer(ctx, customer, "tok_visa")

	require.NoError(t, err)
	assert.Equal(t, "card_new", card.ProviderID)
	assert.Equal(t, "4242", card.Last4)
	assert.Same(t, card, customer.Card())
	mockCards.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestService_AttachToCustomer_LegacyCardsKey(t *testing.T) {
	mockCards := new(mocks.CardRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockCards, mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	customer := &domain.CustomerAccount{}
	customer.SetProviderID("cus_1")

	customerPayload := map[string]interface{}{
		"id":           "cus_1",
		"default_card": "card_new",
		"cards": map[string]interface{}{
			"data": []interface{}{fixtures.CardPayload("card_new")},
		},
	}
	mockProvider.On("UpdateCustomer", ctx, "cus_1", mock.Anything).Return(customerPayload, nil)
	mockCards.On("Save", ctx, mock.AnythingOfType("*domain.Card")).Return(nil)

	card, err := service.AttachToCustomer(ctx, customer, "tok_visa")

	require.NoError(t, err)
	assert.Equal(t, "card_new", card.ProviderID)
	mockCards.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_Remove_SwallowsProviderNotFound(t *testing.T) {
	mockCards := new(mocks.CardRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockCards, mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	customer := &domain.CustomerAccount{}
	customer.SetProviderID("cus_1")
	card := domain.NewCard(customer)
	card.ProviderID = "card_1"
	customer.SetCard(card)

	mockProvider.On("DeleteCard", ctx, "card_1", "cus_1").
		Return(domain.NewDomainError(domain.ErrorCodeProviderNotFound, "resource not found on provider"))
	mockCards.On("Delete", ctx, card).Return(nil)

	err := service.Remove(ctx, card)

	require.NoError(t, err)
	assert.Nil(t, customer.Card())
	mockCards.AssertExpectations(t)
}
