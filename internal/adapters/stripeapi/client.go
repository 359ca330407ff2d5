// Package stripeapi implements the provider client against a Stripe-style
// REST API: form-encoded mutations, JSON answers, resource ids in the path.
package stripeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/pkg/observability"
)

// listPageSize is the page size used when iterating collections
const listPageSize = 100

// Client implements ports.ProviderClient
type Client struct {
	baseURL    string
	apiKey     string
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewClient creates a provider client with dependency injection
func NewClient(baseURL, apiKey string, httpClient ports.HTTPClient, logger ports.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewClientWithDefaults creates a provider client with a default HTTP client
func NewClientWithDefaults(baseURL, apiKey string, logger ports.Logger) *Client {
	return NewClient(baseURL, apiKey, &http.Client{Timeout: 30 * time.Second}, logger)
}

// GetEvent re-fetches an event by id
func (c *Client) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	payload, err := c.request(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, "get_event")
	if err != nil {
		return nil, err
	}

	event := &domain.Event{}
	event.ID, _ = payload["id"].(string)
	event.Type, _ = payload["type"].(string)
	event.LiveMode, _ = payload["livemode"].(bool)
	if data, ok := payload["data"].(map[string]interface{}); ok {
		event.Object, _ = data["object"].(map[string]interface{})
	}
	if event.ID == "" || event.Type == "" || event.Object == nil {
		return nil, domain.ErrEventMalformed
	}
	return event, nil
}

// ListPlans iterates all plans, following the provider's cursor pagination
func (c *Client) ListPlans(ctx context.Context) ([]map[string]interface{}, error) {
	var plans []map[string]interface{}
	startingAfter := ""

	for {
		endpoint := fmt.Sprintf("/plans?limit=%d", listPageSize)
		if startingAfter != "" {
			endpoint += "&starting_after=" + url.QueryEscape(startingAfter)
		}
		payload, err := c.request(ctx, http.MethodGet, endpoint, nil, "list_plans")
		if err != nil {
			return nil, err
		}

		data, _ := payload["data"].([]interface{})
		for _, raw := range data {
			if plan, ok := raw.(map[string]interface{}); ok {
				plans = append(plans, plan)
				startingAfter, _ = plan["id"].(string)
			}
		}

		if hasMore, _ := payload["has_more"].(bool); !hasMore || len(data) == 0 {
			return plans, nil
		}
	}
}

// CreateCustomer registers a new customer
func (c *Client) CreateCustomer(ctx context.Context, req ports.CreateCustomerRequest) (map[string]interface{}, error) {
	form := url.Values{}
	setIfPresent(form, "card", req.CardToken)
	setIfPresent(form, "coupon", req.Coupon)
	setIfPresent(form, "description", req.Description)
	setIfPresent(form, "email", req.Email)
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	return c.request(ctx, http.MethodPost, "/customers", form, "create_customer")
}

// UpdateCustomer mutates an existing customer; nil fields are left untouched
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, req ports.UpdateCustomerRequest) (map[string]interface{}, error) {
	form := url.Values{}
	if req.CardToken != nil {
		form.Set("card", *req.CardToken)
	}
	if req.Coupon != nil {
		form.Set("coupon", *req.Coupon)
	}
	return c.request(ctx, http.MethodPost, "/customers/"+url.PathEscape(customerID), form, "update_customer")
}

// CreateSubscription subscribes a customer to a plan
func (c *Client) CreateSubscription(ctx context.Context, req ports.CreateSubscriptionRequest) (map[string]interface{}, error) {
	form := url.Values{}
	form.Set("plan", req.PlanID)
	form.Set("quantity", strconv.Itoa(req.Quantity))
	setIfPresent(form, "tax_percent", req.TaxPercent)
	endpoint := "/customers/" + url.PathEscape(req.CustomerID) + "/subscriptions"
	return c.request(ctx, http.MethodPost, endpoint, form, "create_subscription")
}

// UpdateSubscription mutates an existing subscription; nil fields are left
// untouched
func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, req ports.UpdateSubscriptionRequest) (map[string]interface{}, error) {
	form := url.Values{}
	if req.PlanID != nil {
		form.Set("plan", *req.PlanID)
	}
	if req.Quantity != nil {
		form.Set("quantity", strconv.Itoa(*req.Quantity))
	}
	if req.Coupon != nil {
		form.Set("coupon", *req.Coupon)
	}
	if req.TaxPercent != nil {
		form.Set("tax_percent", *req.TaxPercent)
	}
	if req.Prorate != nil {
		form.Set("prorate", strconv.FormatBool(*req.Prorate))
	}
	endpoint := "/customers/" + url.PathEscape(req.CustomerID) + "/subscriptions/" + url.PathEscape(subscriptionID)
	return c.request(ctx, http.MethodPost, endpoint, form, "update_subscription")
}

// CancelSubscription ends a subscription, optionally at the end of the paid
// period
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID, customerID string, atPeriodEnd bool) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("/customers/%s/subscriptions/%s?at_period_end=%t",
		url.PathEscape(customerID), url.PathEscape(subscriptionID), atPeriodEnd)
	return c.request(ctx, http.MethodDelete, endpoint, nil, "cancel_subscription")
}

// CreateInvoice force-creates an invoice for the customer's pending items
func (c *Client) CreateInvoice(ctx context.Context, req ports.CreateInvoiceRequest) (map[string]interface{}, error) {
	form := url.Values{}
	form.Set("customer", req.CustomerID)
	setIfPresent(form, "subscription", req.SubscriptionID)
	setIfPresent(form, "description", req.Description)
	return c.request(ctx, http.MethodPost, "/invoices", form, "create_invoice")
}

// DeletePlan removes a plan on the provider
func (c *Client) DeletePlan(ctx context.Context, planID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/plans/"+url.PathEscape(planID), nil, "delete_plan")
	return err
}

// DeleteCard detaches a stored card from a customer
func (c *Client) DeleteCard(ctx context.Context, cardID, customerID string) error {
	endpoint := "/customers/" + url.PathEscape(customerID) + "/sources/" + url.PathEscape(cardID)
	_, err := c.request(ctx, http.MethodDelete, endpoint, nil, "delete_card")
	return err
}

// DeleteCustomerDiscount removes the discount attached to a customer
func (c *Client) DeleteCustomerDiscount(ctx context.Context, customerID string) error {
	endpoint := "/customers/" + url.PathEscape(customerID) + "/discount"
	_, err := c.request(ctx, http.MethodDelete, endpoint, nil, "delete_customer_discount")
	return err
}

// DeleteSubscriptionDiscount removes the discount attached to a subscription
func (c *Client) DeleteSubscriptionDiscount(ctx context.Context, customerID, subscriptionID string) error {
	endpoint := "/customers/" + url.PathEscape(customerID) + "/subscriptions/" + url.PathEscape(subscriptionID) + "/discount"
	_, err := c.request(ctx, http.MethodDelete, endpoint, nil, "delete_subscription_discount")
	return err
}

// request performs one API call and decodes the JSON answer
func (c *Client) request(ctx context.Context, method, endpoint string, form url.Values, operation string) (map[string]interface{}, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordProviderRequest(operation, "error", time.Since(start).Seconds())
		return nil, domain.WrapError(domain.ErrorCodeProviderError, "provider request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		observability.RecordProviderRequest(operation, "not_found", time.Since(start).Seconds())
		return nil, domain.NewDomainError(domain.ErrorCodeProviderNotFound,
			"resource not found on provider").WithDetail("endpoint", endpoint)
	}
	if resp.StatusCode >= 400 {
		observability.RecordProviderRequest(operation, "error", time.Since(start).Seconds())
		c.logger.Error("provider request rejected",
			ports.String("operation", operation),
			ports.Int("status", resp.StatusCode),
			ports.String("message", errorMessage(raw)))
		return nil, domain.NewDomainError(domain.ErrorCodeProviderError,
			fmt.Sprintf("provider answered %d: %s", resp.StatusCode, errorMessage(raw)))
	}
	observability.RecordProviderRequest(operation, "ok", time.Since(start).Seconds())

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

// errorMessage digs the human-readable message out of a provider error body
func errorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Message == "" {
		return "unknown error"
	}
	return body.Error.Message
}

func setIfPresent(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
