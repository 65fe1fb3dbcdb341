package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Cart
	CartCreated  prometheus.Counter
	CartUpdated  *prometheus.CounterVec
	CartCleared  *prometheus.CounterVec
	CartItemsAdd prometheus.Counter

	// Checkout funnel
	CheckoutStep     *prometheus.CounterVec
	PaymentAttempts  prometheus.Counter
	PaymentSucceeded prometheus.Counter
	PaymentFailed    *prometheus.CounterVec

	// Orders
	OrdersCreated  prometheus.Counter
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram

	// Sessions
	SessionsCreated prometheus.Counter
	SessionsPurged  prometheus.Counter

	// External API performance
	UpstreamLatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "mesa"
	}

	subsystem := "business"

	m := &BusinessMetrics{
		CartCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_created_total",
				Help:      "Total carts created",
			},
		),
		CartUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updated_total",
				Help:      "Total cart update operations",
			},
			[]string{"action"}, // action: add, remove, update_quantity
		),
		CartCleared: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared (after purchase or manually)",
			},
			[]string{"reason"}, // reason: purchase, manual
		),
		CartItemsAdd: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total items added to carts (quantity-aware)",
			},
		),
		CheckoutStep: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_step_total",
				Help:      "Total completions of each checkout step",
			},
			[]string{"step"}, // step: delivery, payment, confirmation
		),
		PaymentAttempts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Total order submission attempts",
			},
		),
		PaymentSucceeded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_succeeded_total",
				Help:      "Total successful order submissions",
			},
		),
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Total failed order submissions",
			},
			[]string{"reason"}, // reason: validation, upstream, bad_data
		),
		OrdersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
		),
		OrderValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_brl",
				Help:      "Order value distribution in BRL",
				Buckets:   []float64{10, 25, 50, 75, 100, 150, 250, 500, 1000},
			},
		),
		OrderItemCount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of items per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),
		SessionsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_created_total",
				Help:      "Total storefront sessions created",
			},
		),
		SessionsPurged: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_purged_total",
				Help:      "Total expired sessions removed by the sweeper",
			},
		),
		UpstreamLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "upstream_api_duration_seconds",
				Help:      "Upstream efood API call duration (helps differentiate app slowness from upstream issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "outcome"}, // operation: restaurantes, checkout
		),
	}

	return m
}

// Global instance for easy access from handlers and services
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}

// ObserveUpstream records the duration of an upstream API call.
// Safe to call before InitBusinessMetrics (no-op).
func ObserveUpstream(operation string, d time.Duration, ok bool) {
	if Business == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	Business.UpstreamLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// CountCartUpdate records a cart mutation. No-op before init.
func CountCartUpdate(action string) {
	if Business == nil {
		return
	}
	Business.CartUpdated.WithLabelValues(action).Inc()
}

// CountCheckoutStep records a completed checkout step. No-op before init.
func CountCheckoutStep(step string) {
	if Business == nil {
		return
	}
	Business.CheckoutStep.WithLabelValues(step).Inc()
}

// CountPaymentFailed records a failed order submission. No-op before init.
func CountPaymentFailed(reason string) {
	if Business == nil {
		return
	}
	Business.PaymentFailed.WithLabelValues(reason).Inc()
}
