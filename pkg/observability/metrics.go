package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook request metrics
	webhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"mode", "status"},
	)

	webhookRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_request_duration_seconds",
			Help:    "Duration of webhook handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	webhookRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhook_requests_in_flight",
			Help: "Number of webhook deliveries currently being processed",
		},
	)
)

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentWebhookHandler wraps a webhook handler with Prometheus metrics.
// The mode label distinguishes the live and test delivery channels.
func InstrumentWebhookHandler(mode string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		webhookRequestsInFlight.Inc()
		defer webhookRequestsInFlight.Dec()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		webhookRequestDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		webhookRequestsTotal.WithLabelValues(mode, http.StatusText(recorder.status)).Inc()
	})
}
