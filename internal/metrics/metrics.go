// Package metrics Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "countdown"

// Metrics 应用指标集合，方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ruleViolations      *prometheus.CounterVec
	storefrontSelects   *prometheus.CounterVec
	invariantViolations *prometheus.GaugeVec
	installedShops      prometheus.Gauge
}

// New 在独立 registry 上注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ruleViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_violations_total",
			Help:      "Timer writes rejected by a business rule, by error code.",
		}, []string{"code"}),
		storefrontSelects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storefront_selections_total",
			Help:      "Storefront timer lookups by page context and outcome.",
		}, []string{"context", "outcome"}),
		invariantViolations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invariant_violations",
			Help:      "Rows found by the last audit run that break a timer invariant.",
		}, []string{"kind"}),
		installedShops: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "installed_shops",
			Help:      "Shops with the app currently installed.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.ruleViolations, m.storefrontSelects,
		m.invariantViolations, m.installedShops,
	)
	return m
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 供测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RuleViolation(code string) {
	if m == nil {
		return
	}
	m.ruleViolations.WithLabelValues(code).Inc()
}

// StorefrontSelection outcome: shown / empty
func (m *Metrics) StorefrontSelection(context, outcome string) {
	if m == nil {
		return
	}
	m.storefrontSelects.WithLabelValues(context, outcome).Inc()
}

// SetInvariantViolations kind: position_conflict / over_capacity
func (m *Metrics) SetInvariantViolations(kind string, n int) {
	if m == nil {
		return
	}
	m.invariantViolations.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) SetInstalledShops(n int) {
	if m == nil {
		return
	}
	m.installedShops.Set(float64(n))
}
