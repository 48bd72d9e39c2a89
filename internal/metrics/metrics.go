// Package metrics exposes the storefront's Prometheus collectors.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bakery"

// Metrics holds the application collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	checkouts        *prometheus.CounterVec
	gatewayLatency   *prometheus.HistogramVec
	orderTransitions *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	storeCorruption  *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepPromotions  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	liveClients      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of payment provider calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}, []string{"provider", "success"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status changes by target status.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by kind and result.",
		}, []string{"kind", "result"}),
		storeCorruption: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_corruption_total",
			Help:      "Reads of malformed collection documents.",
		}, []string{"collection"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_sweeps_total",
			Help:      "Scheduled publish sweeps by result.",
		}, []string{"result"}),
		sweepPromotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_promotions_total",
			Help:      "Records made public by the publish sweep.",
		}, []string{"collection"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected admin live feed clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkouts,
		m.gatewayLatency,
		m.orderTransitions,
		m.notifications,
		m.storeCorruption,
		m.sweepRuns,
		m.sweepPromotions,
		m.httpRequests,
		m.liveClients,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Checkout counts a checkout attempt. outcome is one of created, invalid,
// unconfigured, gateway_error or error.
func (m *Metrics) Checkout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

// GatewayCall records the latency of one provider call.
func (m *Metrics) GatewayCall(provider string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(provider, strconv.FormatBool(success)).Observe(d.Seconds())
}

// OrderTransition counts an order moving to status.
func (m *Metrics) OrderTransition(status string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(status).Inc()
}

// Notification counts one notification attempt.
func (m *Metrics) Notification(kind string, sent bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// StoreCorruption counts a malformed collection read.
func (m *Metrics) StoreCorruption(collection string) {
	if m == nil {
		return
	}
	m.storeCorruption.WithLabelValues(collection).Inc()
}

// Sweep counts one publish sweep.
func (m *Metrics) Sweep(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.sweepRuns.WithLabelValues(result).Inc()
}

// Promoted counts records made public in collection.
func (m *Metrics) Promoted(collection string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sweepPromotions.WithLabelValues(collection).Add(float64(n))
}

// HTTPRequest counts a served request.
func (m *Metrics) HTTPRequest(method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// LiveClients tracks connected live feed clients.
func (m *Metrics) LiveClients(delta int) {
	if m == nil {
		return
	}
	m.liveClients.Add(float64(delta))
}
