package subscription

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/testutil/fixtures"
	"github.com/kevin07696/billing-sync/internal/testutil/mocks"
)

// billableAccount pairs the customer capability with subscription ownership,
// the shape most embedding applications use
type billableAccount struct {
	domain.CustomerAccount
	subscription *domain.Subscription
}

func (b *billableAccount) SetSubscription(s *domain.Subscription) { b.subscription = s }

func (b *billableAccount) Subscription() *domain.Subscription { return b.subscription }

func subscriptionEvent(eventType string, payload map[string]interface{}) *domain.Event {
	return &domain.Event{
		ID:       "evt_1",
		Type:     eventType,
		LiveMode: true,
		Object:   payload,
	}
}

func TestService_SyncFromEvent_CreationIgnored(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	service := NewService(mockSubscriptions, new(mocks.BillableRepository), new(mocks.ProviderClient), mocks.RelaxedLogger())

	outcome, err := service.SyncFromEvent(context.Background(),
		subscriptionEvent("customer.subscription.created", fixtures.SubscriptionPayload("sub_1")))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncIgnored, outcome.Status)
	mockSubscriptions.AssertNotCalled(t, "FindByProviderID", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_UnknownSubscriptionSkipped(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	service := NewService(mockSubscriptions, new(mocks.BillableRepository), new(mocks.ProviderClient), mocks.RelaxedLogger())

	ctx := context.Background()
	mockSubscriptions.On("FindByProviderID", ctx, "sub_1").Return(nil, nil)

	outcome, err := service.SyncFromEvent(ctx,
		subscriptionEvent("customer.subscription.updated", fixtures.SubscriptionPayload("sub_1")))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncSkipped, outcome.Status)
}

func TestService_SyncFromEvent_UpdatePreservesRelations(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	service := NewService(mockSubscriptions, new(mocks.BillableRepository), new(mocks.ProviderClient), mocks.RelaxedLogger())

	ctx := context.Background()
	plan := domain.NewPlan()
	payer := &domain.CustomerAccount{}
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"
	subscription.Plan = plan
	subscription.Payer = payer
	subscription.Quantity = 1

	mockSubscriptions.On("FindByProviderID", ctx, "sub_1").Return(subscription, nil)
	mockSubscriptions.On("Save", ctx, subscription).Return(nil)

	outcome, err := service.SyncFromEvent(ctx,
		subscriptionEvent("customer.subscription.updated", fixtures.SubscriptionPayload("sub_1")))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
	assert.Equal(t, 3, subscription.Quantity)
	assert.Equal(t, fixtures.PeriodEnd, subscription.CurrentPeriodEnd)
	assert.Same(t, plan, subscription.Plan)
	assert.Same(t, payer, subscription.Payer.(*domain.CustomerAccount))
	mockSubscriptions.AssertExpectations(t)
}

func TestService_SyncFromEvent_DeletionDetachesBillable(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockBillables := new(mocks.BillableRepository)
	service := NewService(mockSubscriptions, mockBillables, new(mocks.ProviderClient), mocks.RelaxedLogger())

	ctx := context.Background()
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"
	account := &billableAccount{subscription: subscription}

	mockSubscriptions.On("FindByProviderID", ctx, "sub_1").Return(subscription, nil)
	mockBillables.On("FindBySubscription", ctx, subscription).Return(account, nil)
	mockBillables.On("Save", ctx, account).Return(nil)
	mockSubscriptions.On("Delete", ctx, subscription).Return(nil)

	outcome, err := service.SyncFromEvent(ctx,
		subscriptionEvent("customer.subscription.deleted", fixtures.SubscriptionPayload("sub_1")))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
	assert.Nil(t, account.Subscription())
	mockSubscriptions.AssertExpectations(t)
	mockBillables.AssertExpectations(t)
}

func TestService_SyncFromEvent_EndedUpdateRemovesRow(t *testing.T) {
	// the provider reports some endings as updates with a non-null ended_at
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockBillables := new(mocks.BillableRepository)
	service := NewService(mockSubscriptions, mockBillables, new(mocks.ProviderClient), mocks.RelaxedLogger())

	ctx := context.Background()
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"

	payload := fixtures.SubscriptionPayload("sub_1")
	payload["ended_at"] = float64(fixtures.PeriodEnd.Unix())

	mockSubscriptions.On("FindByProviderID", ctx, "sub_1").Return(subscription, nil)
	mockBillables.On("FindBySubscription", ctx, subscription).Return(nil, nil)
	mockSubscriptions.On("Delete", ctx, subscription).Return(nil)

	outcome, err := service.SyncFromEvent(ctx, subscriptionEvent("customer.subscription.updated", payload))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
	mockSubscriptions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mockSubscriptions.AssertExpectations(t)
}

func TestService_Create_AttachesBillable(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockSubscriptions, new(mocks.BillableRepository), mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	account := &billableAccount{}
	account.SetProviderID("cus_1")
	plan := domain.NewPlan()
	plan.ProviderID = "plan_basic"

	mockProvider.On("CreateSubscription", ctx, ports.CreateSubscriptionRequest{
		CustomerID: "cus_1",
		PlanID:     "plan_basic",
		Quantity:   3,
		TaxPercent: "21",
	}).Return(fixtures.SubscriptionPayload("sub_1"), nil)
	mockSubscriptions.On("Save", ctx, mock.AnythingOfType("*domain.Subscription")).Return(nil)

	subscription, err := service.Create(ctx, account, plan, 3, decimal.NewFromInt(21))

	require.NoError(t, err)
	assert.Equal(t, "sub_1", subscription.ProviderID)
	assert.Same(t, plan, subscription.Plan)
	assert.Same(t, subscription, account.Subscription())
	assert.True(t, subscription.IsActive())
	mockProvider.AssertExpectations(t)
}

func TestService_Cancel_AtPeriodEndKeepsRow(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockSubscriptions, new(mocks.BillableRepository), mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"
	subscription.Payer = payer

	payload := fixtures.SubscriptionPayload("sub_1")
	payload["canceled_at"] = float64(fixtures.DiscountStarted.Unix())

	mockProvider.On("CancelSubscription", ctx, "sub_1", "cus_1", true).Return(payload, nil)
	mockSubscriptions.On("Save", ctx, subscription).Return(nil)

	err := service.Cancel(ctx, subscription, true)

	require.NoError(t, err)
	require.NotNil(t, subscription.CancelledAt)
	assert.True(t, subscription.IsOnGrace())
	mockSubscriptions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_Cancel_ImmediateRemovesRow(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockBillables := new(mocks.BillableRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockSubscriptions, mockBillables, mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"
	subscription.Payer = payer

	mockProvider.On("CancelSubscription", ctx, "sub_1", "cus_1", false).
		Return(fixtures.SubscriptionPayload("sub_1"), nil)
	mockBillables.On("FindBySubscription", ctx, subscription).Return(nil, nil)
	mockSubscriptions.On("Delete", ctx, subscription).Return(nil)

	err := service.Cancel(ctx, subscription, false)

	require.NoError(t, err)
	mockSubscriptions.AssertExpectations(t)
}

func TestService_Cancel_GoneRemotelyStillRemovesRow(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockBillables := new(mocks.BillableRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockSubscriptions, mockBillables, mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"
	subscription.Payer = payer

	mockProvider.On("CancelSubscription", ctx, "sub_1", "cus_1", true).
		Return(nil, domain.NewDomainError(domain.ErrorCodeProviderNotFound, "resource not found on provider"))
	mockBillables.On("FindBySubscription", ctx, subscription).Return(nil, nil)
	mockSubscriptions.On("Delete", ctx, subscription).Return(nil)

	err := service.Cancel(ctx, subscription, true)

	require.NoError(t, err)
	mockSubscriptions.AssertExpectations(t)
}

func TestService_ModifyQuantity_Prorates(t *testing.T) {
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockSubscriptions, new(mocks.BillableRepository), mockProvider, mocks.RelaxedLogger())

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"
	subscription.Payer = payer

	payload := fixtures.SubscriptionPayload("sub_1")
	payload["quantity"] = float64(5)

	mockProvider.On("UpdateSubscription", ctx, "sub_1", mock.MatchedBy(func(req ports.UpdateSubscriptionRequest) bool {
		return req.Quantity != nil && *req.Quantity == 5 && req.Prorate != nil && *req.Prorate
	})).Return(payload, nil)
	mockSubscriptions.On("Save", ctx, subscription).Return(nil)

	err := service.ModifyQuantity(ctx, subscription, 5, true)

	require.NoError(t, err)
	assert.Equal(t, 5, subscription.Quantity)
	mockProvider.AssertExpectations(t)
}
