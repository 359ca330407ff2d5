package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/testutil/fixtures"
	"github.com/kevin07696/billing-sync/internal/testutil/mocks"
)

// MockSyncer mocks a sync service behind the Syncer interface
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.SyncOutcome), args.Error(1)
}

type dispatcherMocks struct {
	provider      *mocks.ProviderClient
	plans         *MockSyncer
	cards         *MockSyncer
	discounts     *MockSyncer
	subscriptions *MockSyncer
	invoices      *MockSyncer
}

func newDispatcher(validateWebhooks bool) (*Dispatcher, *dispatcherMocks) {
	m := &dispatcherMocks{
		provider:      new(mocks.ProviderClient),
		plans:         new(MockSyncer),
		cards:         new(MockSyncer),
		discounts:     new(MockSyncer),
		subscriptions: new(MockSyncer),
		invoices:      new(MockSyncer),
	}
	d := NewDispatcher(m.provider, m.plans, m.cards, m.discounts, m.subscriptions, m.invoices,
		validateWebhooks, mocks.RelaxedLogger())
	return d, m
}

func TestDispatcher_Dispatch_MalformedBodyDiscardedSilently(t *testing.T) {
	d, m := newDispatcher(false)

	for _, body := range [][]byte{
		[]byte("not json at all"),
		[]byte(`{"type":"plan.created"}`),
		[]byte(`{"id":"evt_1"}`),
		[]byte(`[]`),
	} {
		result, err := d.Dispatch(context.Background(), body, domain.ModeLive)
		require.NoError(t, err)
		assert.False(t, result.Retry)
		assert.Equal(t, "malformed event discarded", result.Message)
	}
	m.plans.AssertNotCalled(t, "SyncFromEvent", mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_ModeMismatchIgnored(t *testing.T) {
	d, m := newDispatcher(false)

	body := fixtures.EventBody("evt_1", "plan.updated", false, fixtures.PlanPayload("plan_basic", nil))

	result, err := d.Dispatch(context.Background(), body, domain.ModeLive)

	require.NoError(t, err)
	assert.False(t, result.Retry)
	assert.Contains(t, result.Message, "ignored")
	m.plans.AssertNotCalled(t, "SyncFromEvent", mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_RoutesByTypePrefix(t *testing.T) {
	d, m := newDispatcher(false)
	ctx := context.Background()

	routes := []struct {
		eventType string
		syncer    *MockSyncer
	}{
		{"plan.updated", m.plans},
		{"customer.discount.created", m.discounts},
		{"customer.card.updated", m.cards},
		{"customer.source.updated", m.cards},
		{"customer.subscription.deleted", m.subscriptions},
		{"invoice.payment_succeeded", m.invoices},
	}
	for _, route := range routes {
		route.syncer.On("SyncFromEvent", ctx, mock.MatchedBy(func(e *domain.Event) bool {
			return e.Type == route.eventType
		})).Return(domain.Processed("synchronized"), nil).Once()
	}

	for _, route := range routes {
		body := fixtures.EventBody("evt_1", route.eventType, true, map[string]interface{}{"id": "res_1"})
		result, err := d.Dispatch(ctx, body, domain.ModeLive)
		require.NoError(t, err)
		assert.False(t, result.Retry)
		assert.Contains(t, result.Message, route.eventType)
	}
	for _, route := range routes {
		route.syncer.AssertExpectations(t)
	}
}

func TestDispatcher_Dispatch_UnroutedTypeAnswersOK(t *testing.T) {
	d, m := newDispatcher(false)

	body := fixtures.EventBody("evt_1", "charge.succeeded", true, map[string]interface{}{"id": "ch_1"})

	result, err := d.Dispatch(context.Background(), body, domain.ModeLive)

	require.NoError(t, err)
	assert.False(t, result.Retry)
	assert.Contains(t, result.Message, "no handler recognized the event type")
	m.invoices.AssertNotCalled(t, "SyncFromEvent", mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_ValidationReplacesDeliveredBody(t *testing.T) {
	d, m := newDispatcher(true)
	ctx := context.Background()

	// the delivered body claims a different amount than the provider has on
	// record; only the fetched copy may reach the syncer
	forged := fixtures.PlanPayload("plan_basic", nil)
	forged["amount"] = float64(1)
	body := fixtures.EventBody("evt_1", "plan.updated", true, forged)

	authoritative := &domain.Event{
		ID:       "evt_1",
		Type:     "plan.updated",
		LiveMode: true,
		Object:   fixtures.PlanPayload("plan_basic", nil),
	}
	m.provider.On("GetEvent", ctx, "evt_1").Return(authoritative, nil)
	m.plans.On("SyncFromEvent", ctx, authoritative).Return(domain.Processed("synchronized"), nil)

	result, err := d.Dispatch(ctx, body, domain.ModeLive)

	require.NoError(t, err)
	assert.False(t, result.Retry)
	m.provider.AssertExpectations(t)
	m.plans.AssertExpectations(t)
}

func TestDispatcher_Dispatch_EventUnknownToProviderDiscarded(t *testing.T) {
	d, m := newDispatcher(true)
	ctx := context.Background()

	body := fixtures.EventBody("evt_forged", "plan.updated", true, fixtures.PlanPayload("plan_basic", nil))
	m.provider.On("GetEvent", ctx, "evt_forged").
		Return(nil, domain.NewDomainError(domain.ErrorCodeProviderNotFound, "resource not found on provider"))

	result, err := d.Dispatch(ctx, body, domain.ModeLive)

	require.NoError(t, err)
	assert.False(t, result.Retry)
	assert.Equal(t, "unknown event discarded", result.Message)
	m.plans.AssertNotCalled(t, "SyncFromEvent", mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_ProviderOutageFailsDispatch(t *testing.T) {
	d, m := newDispatcher(true)
	ctx := context.Background()

	body := fixtures.EventBody("evt_1", "plan.updated", true, fixtures.PlanPayload("plan_basic", nil))
	m.provider.On("GetEvent", ctx, "evt_1").Return(nil, errors.New("connection refused"))

	_, err := d.Dispatch(ctx, body, domain.ModeLive)

	require.Error(t, err)
}

func TestDispatcher_Dispatch_RetryLaterRequestsRedelivery(t *testing.T) {
	d, m := newDispatcher(false)
	ctx := context.Background()

	body := fixtures.EventBody("evt_1", "customer.discount.created", true,
		fixtures.DiscountPayload("cus_1", "sub_1"))
	m.discounts.On("SyncFromEvent", ctx, mock.Anything).
		Return(domain.SyncOutcome{}, domain.RetryLater("subscription", "sub_1"))

	result, err := d.Dispatch(ctx, body, domain.ModeLive)

	require.NoError(t, err)
	assert.True(t, result.Retry)
	assert.Contains(t, result.Message, "sub_1")
}

func TestDispatcher_Dispatch_SyncerErrorPropagates(t *testing.T) {
	d, m := newDispatcher(false)
	ctx := context.Background()

	body := fixtures.EventBody("evt_1", "invoice.created", true, fixtures.InvoicePayload("in_1", "cus_1", false))
	m.invoices.On("SyncFromEvent", ctx, mock.Anything).
		Return(domain.SyncOutcome{}, errors.New("database down"))

	_, err := d.Dispatch(ctx, body, domain.ModeLive)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt_1")
}

func TestDispatcher_Dispatch_SkippedOutcomeMentionsReason(t *testing.T) {
	d, m := newDispatcher(false)
	ctx := context.Background()

	body := fixtures.EventBody("evt_1", "plan.created", true, fixtures.PlanPayload("plan_basic", nil))
	m.plans.On("SyncFromEvent", ctx, mock.Anything).
		Return(domain.Skipped("plan \"plan_basic\" already exists locally"), nil)

	result, err := d.Dispatch(ctx, body, domain.ModeLive)

	require.NoError(t, err)
	assert.False(t, result.Retry)
	assert.Contains(t, result.Message, "skipped")
}
