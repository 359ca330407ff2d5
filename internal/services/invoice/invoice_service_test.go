package invoice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/testutil/fixtures"
	"github.com/kevin07696/billing-sync/internal/testutil/mocks"
)

// vatAccount is a customer carrying VAT registration data
type vatAccount struct {
	domain.CustomerAccount
	vatNumber  string
	vatCountry string
}

func (v *vatAccount) VatNumber() string { return v.vatNumber }

func (v *vatAccount) VatCountry() string { return v.vatCountry }

func invoiceEvent(eventType string, payload map[string]interface{}) *domain.Event {
	return &domain.Event{
		ID:       "evt_1",
		Type:     eventType,
		LiveMode: true,
		Object:   payload,
	}
}

func newService(t *testing.T) (*Service, *mocks.InvoiceRepository, *mocks.CustomerRepository, *mocks.SubscriptionRepository, *mocks.InvoiceNotifier) {
	t.Helper()
	mockInvoices := new(mocks.InvoiceRepository)
	mockCustomers := new(mocks.CustomerRepository)
	mockSubscriptions := new(mocks.SubscriptionRepository)
	mockNotifier := new(mocks.InvoiceNotifier)
	service := NewService(mockInvoices, mockCustomers, mockSubscriptions, new(mocks.ProviderClient), mockNotifier, mocks.RelaxedLogger())
	return service, mockInvoices, mockCustomers, mockSubscriptions, mockNotifier
}

func TestService_SyncFromEvent_UnrecognizedType(t *testing.T) {
	service, mockInvoices, _, _, _ := newService(t)

	outcome, err := service.SyncFromEvent(context.Background(),
		invoiceEvent("invoiceitem.created", fixtures.InvoicePayload("in_1", "cus_1", false)))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncIgnored, outcome.Status)
	mockInvoices.AssertNotCalled(t, "FindByProviderID", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_MissingCustomerDefers(t *testing.T) {
	service, mockInvoices, mockCustomers, _, _ := newService(t)

	ctx := context.Background()
	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(nil, nil)
	mockCustomers.On("FindByProviderID", ctx, "cus_1").Return(nil, nil)

	_, err := service.SyncFromEvent(ctx,
		invoiceEvent("invoice.created", fixtures.InvoicePayload("in_1", "cus_1", false)))

	require.Error(t, err)
	assert.True(t, domain.IsRetryLater(err))
	assert.Contains(t, err.Error(), "cus_1")
}

func TestService_SyncFromEvent_RedundantCreationSkipped(t *testing.T) {
	service, mockInvoices, _, _, _ := newService(t)

	ctx := context.Background()
	existing := domain.NewInvoice()
	existing.ProviderID = "in_1"

	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(existing, nil)

	outcome, err := service.SyncFromEvent(ctx,
		invoiceEvent("invoice.created", fixtures.InvoicePayload("in_1", "cus_1", false)))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncSkipped, outcome.Status)
	mockInvoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_CreatesOpenInvoiceWithVatSnapshot(t *testing.T) {
	service, mockInvoices, mockCustomers, mockSubscriptions, mockNotifier := newService(t)

	ctx := context.Background()
	payer := &vatAccount{vatNumber: "NL123456789B01", vatCountry: "NL"}
	payer.SetProviderID("cus_1")
	subscription := domain.NewSubscription()
	subscription.ProviderID = "sub_1"

	payload := fixtures.InvoicePayload("in_1", "cus_1", false)
	payload["subscription"] = "sub_1"

	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(nil, nil)
	mockCustomers.On("FindByProviderID", ctx, "cus_1").Return(payer, nil)
	mockSubscriptions.On("FindByProviderID", ctx, "sub_1").Return(subscription, nil)
	mockInvoices.On("Save", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	outcome, err := service.SyncFromEvent(ctx, invoiceEvent("invoice.created", payload))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)

	saved := mockInvoices.Calls[1].Arguments.Get(1).(*domain.Invoice)
	assert.Equal(t, "in_1", saved.ProviderID)
	assert.Same(t, subscription, saved.Subscription)
	assert.Equal(t, "NL123456789B01", saved.VatNumber)
	assert.Equal(t, "NL", saved.VatCountry)
	assert.False(t, saved.Closed)
	assert.Empty(t, saved.LineItems)
	mockNotifier.AssertNotCalled(t, "InvoiceClosed", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_PaymentSucceededNotifiesOnce(t *testing.T) {
	service, mockInvoices, mockCustomers, _, mockNotifier := newService(t)

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")

	payload := fixtures.InvoicePayload("in_1", "cus_1", true)
	event := invoiceEvent("invoice.payment_succeeded", payload)

	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(nil, nil).Once()
	mockCustomers.On("FindByProviderID", ctx, "cus_1").Return(payer, nil)
	mockInvoices.On("Save", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil)
	mockNotifier.On("InvoiceClosed", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	outcome, err := service.SyncFromEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)

	saved := mockInvoices.Calls[1].Arguments.Get(1).(*domain.Invoice)
	assert.True(t, saved.Closed)
	assert.Len(t, saved.LineItems, 2)
	mockNotifier.AssertNumberOfCalls(t, "InvoiceClosed", 1)

	// a redelivery of the same event finds the stored row and must not
	// duplicate lines or fire the notification again
	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(saved, nil)

	outcome, err = service.SyncFromEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
	assert.Len(t, saved.LineItems, 2)
	mockNotifier.AssertNumberOfCalls(t, "InvoiceClosed", 1)
}

func TestService_SyncFromEvent_ClosedUpdateNeverNotifies(t *testing.T) {
	// invoice.updated can be the first event to observe the closed state, for
	// example after a redelivery storm; the snapshot is still taken but the
	// notification belongs to the payment event
	service, mockInvoices, _, _, mockNotifier := newService(t)

	ctx := context.Background()
	existing := domain.NewInvoice()
	existing.ProviderID = "in_1"
	existing.Payer = &domain.CustomerAccount{}

	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(existing, nil)
	mockInvoices.On("Save", ctx, existing).Return(nil)

	outcome, err := service.SyncFromEvent(ctx,
		invoiceEvent("invoice.updated", fixtures.InvoicePayload("in_1", "cus_1", true)))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
	assert.True(t, existing.Closed)
	assert.Len(t, existing.LineItems, 2)
	mockNotifier.AssertNotCalled(t, "InvoiceClosed", mock.Anything, mock.Anything)
}

func TestService_SyncFromEvent_NotifierErrorDoesNotFailSync(t *testing.T) {
	service, mockInvoices, mockCustomers, _, mockNotifier := newService(t)

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")

	mockInvoices.On("FindByProviderID", ctx, "in_1").Return(nil, nil)
	mockCustomers.On("FindByProviderID", ctx, "cus_1").Return(payer, nil)
	mockInvoices.On("Save", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil)
	mockNotifier.On("InvoiceClosed", ctx, mock.Anything).Return(errors.New("smtp unavailable"))

	outcome, err := service.SyncFromEvent(ctx,
		invoiceEvent("invoice.payment_succeeded", fixtures.InvoicePayload("in_1", "cus_1", true)))

	require.NoError(t, err)
	assert.Equal(t, domain.SyncProcessed, outcome.Status)
}

func TestService_Create_MirrorsProviderInvoice(t *testing.T) {
	mockInvoices := new(mocks.InvoiceRepository)
	mockProvider := new(mocks.ProviderClient)
	service := NewService(mockInvoices, new(mocks.CustomerRepository), new(mocks.SubscriptionRepository), mockProvider, nil, mocks.RelaxedLogger())

	ctx := context.Background()
	payer := &domain.CustomerAccount{}
	payer.SetProviderID("cus_1")

	mockProvider.On("CreateInvoice", ctx, ports.CreateInvoiceRequest{
		CustomerID:  "cus_1",
		Description: "setup fee",
	}).Return(fixtures.InvoicePayload("in_1", "cus_1", false), nil)
	mockInvoices.On("Save", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	invoice, err := service.Create(ctx, payer, "setup fee")

	require.NoError(t, err)
	assert.Equal(t, "in_1", invoice.ProviderID)
	assert.Same(t, payer, invoice.Payer.(*domain.CustomerAccount))
	mockProvider.AssertExpectations(t)
}
