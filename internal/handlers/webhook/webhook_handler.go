// Package webhook exposes the provider webhook endpoints. Two routes are
// registered, one per delivery mode, so the provider's test traffic can never
// touch live mirrors.
package webhook

import (
	"io"
	"net/http"

	"github.com/kevin07696/billing-sync/internal/domain"
	"github.com/kevin07696/billing-sync/internal/domain/ports"
	"github.com/kevin07696/billing-sync/internal/services/dispatcher"
	"github.com/kevin07696/billing-sync/pkg/observability"
)

// maxBodySize caps webhook bodies; provider events are a few KB at most
const maxBodySize = 1 << 20

// Handler terminates provider webhook deliveries
type Handler struct {
	dispatcher *dispatcher.Dispatcher
	logger     ports.Logger
}

// NewHandler creates a webhook handler
func NewHandler(d *dispatcher.Dispatcher, logger ports.Logger) *Handler {
	return &Handler{dispatcher: d, logger: logger}
}

// Register mounts the live and test endpoints on the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /webhooks/live", observability.InstrumentWebhookHandler("live", h.handle(domain.ModeLive)))
	mux.Handle("POST /webhooks/test", observability.InstrumentWebhookHandler("test", h.handle(domain.ModeTest)))
}

// handle answers a delivery on one mode channel. A retry result maps to 503
// so the provider redelivers; anything the dispatcher dropped or processed
// maps to 200 so the provider stops retrying.
func (h *Handler) handle(mode domain.Mode) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			h.logger.Warn("failed to read webhook body", ports.Err(err))
			http.Error(w, "cannot read body", http.StatusBadRequest)
			return
		}

		result, err := h.dispatcher.Dispatch(r.Context(), body, mode)
		if err != nil {
			h.logger.Error("webhook dispatch failed", ports.Err(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if result.Retry {
			http.Error(w, result.Message, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if result.Message != "" {
			io.WriteString(w, result.Message)
		}
	})
}
