package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentPollMetrics tracks the payment status polling loop.
type PaymentPollMetrics struct {
	attempts *prometheus.CounterVec
	outcome  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPaymentPollMetrics registers poller metrics on the provided registerer.
func NewPaymentPollMetrics(reg prometheus.Registerer) *PaymentPollMetrics {
	if reg == nil {
		return &PaymentPollMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_poll_attempts_total",
		Help: "Status checks issued by the payment poller.",
	}, []string{"gateway"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_poll_outcomes_total",
		Help: "Terminal poller outcomes.",
	}, []string{"gateway", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_poll_duration_seconds",
		Help:    "Wall time from first to last poll attempt.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
	reg.MustRegister(attempts, outcome, duration)
	return &PaymentPollMetrics{attempts: attempts, outcome: outcome, duration: duration}
}

// IncAttempt counts one status check.
func (m *PaymentPollMetrics) IncAttempt(gateway string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(gateway)).Inc()
}

// ObserveOutcome records the terminal result of one polling run.
func (m *PaymentPollMetrics) ObserveOutcome(gateway, outcome string, elapsed time.Duration) {
	if m == nil || m.outcome == nil {
		return
	}
	m.outcome.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(normalizeLabel(gateway)).Observe(elapsed.Seconds())
}
