// Package metrics holds the Prometheus collectors for validation and storage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	ValidationsTotal       *prometheus.CounterVec
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	CacheRequestsTotal     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them with registry. A nil
// registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userassets_validations_total",
				Help: "Total number of field validations",
			},
			[]string{"result"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userassets_store_operations_total",
				Help: "Total number of asset store operations",
			},
			[]string{"op", "result"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userassets_store_operation_duration_seconds",
				Help:    "Asset store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userassets_cache_requests_total",
				Help: "Total number of asset cache lookups",
			},
			[]string{"result"},
		),
		registry: registry,
	}
	registry.MustRegister(
		m.ValidationsTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.CacheRequestsTotal,
	)
	return m
}

// ObserveValidation counts one validation outcome.
func (m *Metrics) ObserveValidation(ok bool) {
	if m == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultInvalid
	}
	m.ValidationsTotal.WithLabelValues(result).Inc()
}

// ObserveStore records one store operation that started at start.
func (m *Metrics) ObserveStore(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.StoreOperationsTotal.WithLabelValues(op, result).Inc()
	m.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveCache counts a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
