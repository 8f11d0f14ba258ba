package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TerminalMetrics records checkout outcomes and state-store health for a till.
type TerminalMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkouts        *prometheus.CounterVec
	prints           *prometheus.CounterVec
	cleanups         *prometheus.CounterVec
	persistFailures  prometheus.Counter
}

// NewTerminalMetrics registers the terminal metrics on the provided registerer.
func NewTerminalMetrics(reg prometheus.Registerer) *TerminalMetrics {
	if reg == nil {
		return &TerminalMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_checkout_duration_seconds",
		Help:    "Duration of checkout attempts from validation to order creation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	prints := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_receipt_print_total",
		Help: "Receipt print attempts by outcome.",
	}, []string{"outcome"})
	cleanups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_cleanup_total",
		Help: "Post-checkout tab cleanups by trigger.",
	}, []string{"trigger"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_session_persist_failures_total",
		Help: "Failed writes of the order session to durable storage.",
	})
	reg.MustRegister(checkoutDuration, checkouts, prints, cleanups, persistFailures)
	return &TerminalMetrics{
		checkoutDuration: checkoutDuration,
		checkouts:        checkouts,
		prints:           prints,
		cleanups:         cleanups,
		persistFailures:  persistFailures,
	}
}

// ObserveCheckout records one checkout attempt and its duration.
func (m *TerminalMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkouts.WithLabelValues(label).Inc()
	m.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncPrint counts a receipt print outcome.
func (m *TerminalMetrics) IncPrint(outcome string) {
	if m == nil || m.prints == nil {
		return
	}
	m.prints.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCleanup counts which source triggered a post-checkout cleanup.
func (m *TerminalMetrics) IncCleanup(trigger string) {
	if m == nil || m.cleanups == nil {
		return
	}
	m.cleanups.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncPersistFailure counts a failed session write.
func (m *TerminalMetrics) IncPersistFailure() {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
