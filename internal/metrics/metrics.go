// Package metrics holds the Prometheus collectors for the storefront
// binaries. All recorder methods are safe on a nil receiver so callers can
// run without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// NewRegistry returns a registry with the Go and process collectors
// registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

type Webhook struct {
	notifications     *prometheus.CounterVec
	reconcileFailures prometheus.Counter
	duration          prometheus.Histogram
}

func NewWebhook(reg prometheus.Registerer) *Webhook {
	m := &Webhook{
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "notifications_total",
				Help:      "Payment notifications received, by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		reconcileFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "reconcile_failures_total",
				Help:      "Order reconciliations that failed after a successful dispatch.",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "processing_duration_seconds",
				Help:      "Time spent processing a webhook end to end.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.notifications, m.reconcileFailures, m.duration)
	return m
}

func (m *Webhook) ObserveNotification(notificationType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(notificationType, outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Webhook) ReconcileFailed() {
	if m == nil {
		return
	}
	m.reconcileFailures.Inc()
}

type Cache struct {
	decisions     *prometheus.CounterVec
	revalidations *prometheus.CounterVec
	purged        prometheus.Counter
}

func NewCache(reg prometheus.Registerer) *Cache {
	m := &Cache{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "decisions_total",
				Help:      "Intercepted requests, by classification, strategy and how they were served.",
			},
			[]string{"classification", "strategy", "result"},
		),
		revalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "revalidations_total",
				Help:      "Background revalidations after a cache-first hit, by outcome.",
			},
			[]string{"outcome"},
		),
		purged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "partitions_purged_total",
				Help:      "Cache partitions deleted because they belong to another version.",
			},
		),
	}
	reg.MustRegister(m.decisions, m.revalidations, m.purged)
	return m
}

func (m *Cache) ObserveDecision(classification, strategy, result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(classification, strategy, result).Inc()
}

func (m *Cache) ObserveRevalidation(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.revalidations.WithLabelValues(outcome).Inc()
}

func (m *Cache) PartitionsPurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}

type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, by method and status.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTP) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
