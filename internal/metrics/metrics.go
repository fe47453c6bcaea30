// Package metrics exposes Prometheus collectors for the HTTP layer and the
// checkout pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeRejected        = "rejected"
	OutcomeUnavailable     = "dependency_unavailable"
	OutcomeNotReconciled   = "not_reconciled"
	OutcomeInternalFailure = "internal_error"
)

// Metrics holds every collector the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec
	Checkouts         *prometheus.CounterVec
	ReconcileFailures prometheus.Counter
	PromoFallbacks    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kart",
			Subsystem: "checkout",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kart",
			Subsystem: "checkout",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kart",
			Subsystem: "checkout",
			Name:      "orders_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		ReconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kart",
			Subsystem: "checkout",
			Name:      "inventory_reconcile_failures_total",
			Help:      "Orders persisted without a completed inventory debit.",
		}),
		PromoFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kart",
			Subsystem: "checkout",
			Name:      "promo_lookup_failures_total",
			Help:      "Promo lookups that failed and were skipped.",
		}),
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Checkouts, m.ReconcileFailures, m.PromoFallbacks)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}

// ObserveCheckout counts a checkout attempt with the given outcome.
func (m *Metrics) ObserveCheckout(outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
}

// ObserveReconcileFailure counts an order whose stock debit did not complete.
func (m *Metrics) ObserveReconcileFailure() {
	if m == nil {
		return
	}
	m.ReconcileFailures.Inc()
}

// ObservePromoFallback counts a promo lookup failure that was skipped.
func (m *Metrics) ObservePromoFallback() {
	if m == nil {
		return
	}
	m.PromoFallbacks.Inc()
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
