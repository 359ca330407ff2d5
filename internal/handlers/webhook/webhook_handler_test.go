package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/services/dispatcher"
	"github.com/kevin07696/billing-sync/internal/testutil/fixtures"
	"github.com/kevin07696/billing-sync/internal/testutil/mocks"
)

// stubSyncer answers every event with a fixed outcome
type stubSyncer struct {
	outcome domain.SyncOutcome
	err     error
	calls   int
}

func (s *stubSyncer) SyncFromEvent(ctx context.Context, event *domain.Event) (domain.SyncOutcome, error) {
	s.calls++
	return s.outcome, s.err
}

func newServer(t *testing.T, plans, invoices, discounts dispatcher.Syncer) *httptest.Server {
	t.Helper()
	ignore := &stubSyncer{outcome: domain.Ignored()}
	d := dispatcher.NewDispatcher(new(mocks.ProviderClient),
		plans, ignore, discounts, ignore, invoices, false, mocks.RelaxedLogger())

	mux := http.NewServeMux()
	NewHandler(d, mocks.RelaxedLogger()).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_ProcessedEventAnswers200(t *testing.T) {
	plans := &stubSyncer{outcome: domain.Processed("plan \"plan_basic\" synchronized")}
	server := newServer(t, plans, &stubSyncer{}, &stubSyncer{})

	body := fixtures.EventBody("evt_1", "plan.updated", true, fixtures.PlanPayload("plan_basic", nil))
	resp := post(t, server.URL+"/webhooks/live", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, plans.calls)
}

func TestHandler_MalformedBodyAnswers200(t *testing.T) {
	plans := &stubSyncer{outcome: domain.Processed("")}
	server := newServer(t, plans, &stubSyncer{}, &stubSyncer{})

	resp := post(t, server.URL+"/webhooks/live", []byte("garbage"))

	// a failure answer would only make the provider retry garbage
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, plans.calls)
}

func TestHandler_TestEventOnLiveEndpointAnswers200WithoutSync(t *testing.T) {
	plans := &stubSyncer{outcome: domain.Processed("")}
	server := newServer(t, plans, &stubSyncer{}, &stubSyncer{})

	body := fixtures.EventBody("evt_1", "plan.updated", false, fixtures.PlanPayload("plan_basic", nil))
	resp := post(t, server.URL+"/webhooks/live", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, plans.calls)
}

func TestHandler_TestEndpointAcceptsTestEvents(t *testing.T) {
	plans := &stubSyncer{outcome: domain.Processed("synchronized")}
	server := newServer(t, plans, &stubSyncer{}, &stubSyncer{})

	body := fixtures.EventBody("evt_1", "plan.updated", false, fixtures.PlanPayload("plan_basic", nil))
	resp := post(t, server.URL+"/webhooks/test", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, plans.calls)
}

func TestHandler_RetryLaterAnswers503(t *testing.T) {
	discounts := &stubSyncer{err: domain.RetryLater("subscription", "sub_1")}
	server := newServer(t, &stubSyncer{}, &stubSyncer{}, discounts)

	body := fixtures.EventBody("evt_1", "customer.discount.created", true, fixtures.DiscountPayload("cus_1", "sub_1"))
	resp := post(t, server.URL+"/webhooks/live", body)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandler_SyncErrorAnswers500(t *testing.T) {
	invoices := &stubSyncer{err: assert.AnError}
	server := newServer(t, &stubSyncer{}, invoices, &stubSyncer{})

	body := fixtures.EventBody("evt_1", "invoice.created", true, fixtures.InvoicePayload("in_1", "cus_1", false))
	resp := post(t, server.URL+"/webhooks/live", body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandler_GetMethodNotAllowed(t *testing.T) {
	server := newServer(t, &stubSyncer{}, &stubSyncer{}, &stubSyncer{})

	resp, err := http.Get(server.URL + "/webhooks/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
