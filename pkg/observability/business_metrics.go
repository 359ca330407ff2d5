package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Synchronization metrics
	syncEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_sync_events_total",
		Help: "Total provider events routed to a sync service",
	}, []string{
		"event_type",
		"status", // processed, ignored, skipped
	})

	syncDeferredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_sync_deferred_total",
		Help: "Events answered with a retry status because a dependency was not mirrored yet",
	}, []string{
		"event_type",
	})

	syncDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_sync_discarded_total",
		Help: "Deliveries dropped before routing (malformed, mode mismatch, unknown to provider)",
	}, []string{
		"reason",
	})

	// Invoice metrics
	invoicesClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_invoices_closed_total",
		Help: "Invoices observed closed for the first time",
	}, []string{
		"currency",
	})

	invoiceRevenueCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_invoice_revenue_cents_total",
		Help: "Total amount due across closed invoices in cents",
	}, []string{
		"currency",
	})

	// Provider API metrics
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_provider_requests_total",
		Help: "Total requests issued to the billing provider API",
	}, []string{
		"operation",
		"status", // ok, not_found, error
	})

	providerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_provider_request_duration_seconds",
		Help:    "Time spent on billing provider API calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{
		"operation",
	})
)

// RecordSyncEvent records the outcome of routing one provider event
func RecordSyncEvent(eventType, status string) {
	syncEventsTotal.WithLabelValues(eventType, status).Inc()
}

// RecordSyncDeferred records an event answered with a retry status
func RecordSyncDeferred(eventType string) {
	syncDeferredTotal.WithLabelValues(eventType).Inc()
}

// RecordSyncDiscarded records a delivery dropped before routing
func RecordSyncDiscarded(reason string) {
	syncDiscardedTotal.WithLabelValues(reason).Inc()
}

// RecordInvoiceClosed records an invoice observed closed for the first time
func RecordInvoiceClosed(currency string, amountDueCents int64) {
	invoicesClosedTotal.WithLabelValues(currency).Inc()
	invoiceRevenueCents.WithLabelValues(currency).Add(float64(amountDueCents))
}

// RecordProviderRequest records one billing provider API call
func RecordProviderRequest(operation, status string, duration float64) {
	providerRequestsTotal.WithLabelValues(operation, status).Inc()
	providerRequestDuration.WithLabelValues(operation).Observe(duration)
}
