package http

import (
	"io"
	"net/http"
	"time"

	"github.com/kevin07696/billing-sync/pkg/resilience"
)

// Doer is the minimal HTTP client surface the retry wrapper decorates
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryingClient retries idempotent requests against the provider's API.
//
// Only GET and DELETE are retried. POST is never replayed because the
// provider bills side effects per request, and a duplicate POST can create a
// duplicate customer or invoice.
type RetryingClient struct {
	base       Doer
	strategy   resilience.BackoffStrategy
	maxRetries int
}

// NewRetryingClient wraps base with retry behavior. maxRetries counts the
// additional attempts after the first one.
func NewRetryingClient(base Doer, strategy resilience.BackoffStrategy, maxRetries int) *RetryingClient {
	return &RetryingClient{
		base:       base,
		strategy:   strategy,
		maxRetries: maxRetries,
	}
}

// Do sends the request, retrying idempotent methods on transport errors and
// retryable status codes. The request context bounds the total time spent.
func (rc *RetryingClient) Do(req *http.Request) (*http.Response, error) {
	if !retryableMethod(req.Method) {
		return rc.base.Do(req)
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = rc.base.Do(req)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt >= rc.maxRetries {
			return resp, err
		}
		if resp != nil {
			// Drain so the connection can be reused.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-time.After(rc.strategy.NextDelay(attempt)):
		case <-req.Context().Done():
			if err != nil {
				return nil, err
			}
			return nil, req.Context().Err()
		}
	}
}

func retryableMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodDelete
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
