// Package mocks provides testify mocks for the domain ports. The provider
// client and logger mocks are shared here because nearly every service test
// needs them; single-use mocks stay next to the tests that own them.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
)

// ProviderClient mocks ports.ProviderClient
type ProviderClient struct {
	mock.Mock
}

func (m *ProviderClient) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *ProviderClient) ListPlans(ctx context.Context) ([]map[string]interface{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) CreateCustomer(ctx context.Context, req ports.CreateCustomerRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) UpdateCustomer(ctx context.Context, customerID string, req ports.UpdateCustomerRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) CreateSubscription(ctx context.Context, req ports.CreateSubscriptionRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) UpdateSubscription(ctx context.Context, subscriptionID string, req ports.UpdateSubscriptionRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, subscriptionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) CancelSubscription(ctx context.Context, subscriptionID, customerID string, atPeriodEnd bool) (map[string]interface{}, error) {
	args := m.Called(ctx, subscriptionID, customerID, atPeriodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) CreateInvoice(ctx context.Context, req ports.CreateInvoiceRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *ProviderClient) DeletePlan(ctx context.Context, planID string) error {
	args := m.Called(ctx, planID)
	return args.Error(0)
}

func (m *ProviderClient) DeleteCard(ctx context.Context, cardID, customerID string) error {
	args := m.Called(ctx, cardID, customerID)
	return args.Error(0)
}

func (m *ProviderClient) DeleteCustomerDiscount(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *ProviderClient) DeleteSubscriptionDiscount(ctx context.Context, customerID, subscriptionID string) error {
	args := m.Called(ctx, customerID, subscriptionID)
	return args.Error(0)
}

// Logger mocks ports.Logger
type Logger struct {
	mock.Mock
}

func (m *Logger) Info(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

func (m *Logger) Warn(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

func (m *Logger) Error(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

func (m *Logger) Debug(msg string, fields ...ports.Field) {
	m.Called(msg, fields)
}

// RelaxedLogger returns a logger mock that accepts any call on any level
func RelaxedLogger() *Logger {
	logger := new(Logger)
	logger.On("Info", mock.Anything, mock.Anything).Return().Maybe()
	logger.On("Warn", mock.Anything, mock.Anything).Return().Maybe()
	logger.On("Error", mock.Anything, mock.Anything).Return().Maybe()
	logger.On("Debug", mock.Anything, mock.Anything).Return().Maybe()
	return logger
}

// PlanRepository mocks ports.PlanRepository
type PlanRepository struct {
	mock.Mock
}

func (m *PlanRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Plan, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plan), args.Error(1)
}

func (m *PlanRepository) FindByNaturalKey(ctx context.Context, providerID string, createdAt time.Time) (*domain.Plan, error) {
	args := m.Called(ctx, providerID, createdAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plan), args.Error(1)
}

func (m *PlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Plan), args.Error(1)
}

func (m *PlanRepository) Save(ctx context.Context, plan *domain.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

// CardRepository mocks ports.CardRepository
type CardRepository struct {
	mock.Mock
}

func (m *CardRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Card, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *CardRepository) FindByCustomer(ctx context.Context, customer domain.Customer) (*domain.Card, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *CardRepository) Save(ctx context.Context, card *domain.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *CardRepository) Delete(ctx context.Context, card *domain.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

// CustomerRepository mocks ports.CustomerRepository
type CustomerRepository struct {
	mock.Mock
}

func (m *CustomerRepository) FindByProviderID(ctx context.Context, providerID string) (domain.Customer, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Customer), args.Error(1)
}

func (m *CustomerRepository) Save(ctx context.Context, customer domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// DiscountRepository mocks ports.DiscountRepository
type DiscountRepository struct {
	mock.Mock
}

func (m *DiscountRepository) FindByCustomer(ctx context.Context, customer domain.Customer) (*domain.Discount, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *DiscountRepository) FindBySubscription(ctx context.Context, subscription *domain.Subscription) (*domain.Discount, error) {
	args := m.Called(ctx, subscription)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *DiscountRepository) Save(ctx context.Context, discount *domain.Discount) error {
	args := m.Called(ctx, discount)
	return args.Error(0)
}

func (m *DiscountRepository) Delete(ctx context.Context, discount *domain.Discount) error {
	args := m.Called(ctx, discount)
	return args.Error(0)
}

// SubscriptionRepository mocks ports.SubscriptionRepository
type SubscriptionRepository struct {
	mock.Mock
}

func (m *SubscriptionRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Subscription, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *SubscriptionRepository) FindByPayer(ctx context.Context, payer domain.Customer) ([]*domain.Subscription, error) {
	args := m.Called(ctx, payer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}

func (m *SubscriptionRepository) Save(ctx context.Context, subscription *domain.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *SubscriptionRepository) Delete(ctx context.Context, subscription *domain.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

// InvoiceRepository mocks ports.InvoiceRepository
type InvoiceRepository struct {
	mock.Mock
}

func (m *InvoiceRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Invoice, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *InvoiceRepository) Save(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// BillableRepository mocks ports.BillableRepository
type BillableRepository struct {
	mock.Mock
}

func (m *BillableRepository) FindBySubscription(ctx context.Context, subscription *domain.Subscription) (domain.Billable, error) {
	args := m.Called(ctx, subscription)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Billable), args.Error(1)
}

func (m *BillableRepository) Save(ctx context.Context, billable domain.Billable) error {
	args := m.Called(ctx, billable)
	return args.Error(0)
}

// InvoiceNotifier mocks ports.InvoiceNotifier
type InvoiceNotifier struct {
	mock.Mock
}

func (m *InvoiceNotifier) InvoiceClosed(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}
