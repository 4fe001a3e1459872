// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Queue metrics
	QueueBuildsTotal *prometheus.CounterVec
	QueueItems       *prometheus.GaugeVec

	// Scenario metrics
	ComparisonsTotal  *prometheus.CounterVec
	RuleFailuresTotal *prometheus.CounterVec
	BreachWeeks       prometheus.Histogram

	// Latency metrics
	OperationDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal *prometheus.CounterVec
	WSClients         prometheus.Gauge

	// Refresh metrics
	RefreshRunsTotal      *prometheus.CounterVec
	LastSuccessfulRefresh prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses a fresh registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "tamio_engine"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueueBuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "builds_total",
			Help:      "Total number of decision queue builds by status",
		}, []string{"status"}),
		QueueItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "items",
			Help:      "Items per section in the most recently built queue",
		}, []string{"section"}),

		ComparisonsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "comparisons_total",
			Help:      "Total number of scenario comparisons by outcome",
		}, []string{"outcome"}),
		RuleFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "rule_failures_total",
			Help:      "Total number of rules failed by a scenario forecast",
		}, []string{"rule_type"}),
		BreachWeeks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dangerzone",
			Name:      "breach_weeks",
			Help:      "Weeks below the buffer per danger zone analysis",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 13, 26, 52},
		}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients",
			Help:      "Connected queue stream clients",
		}),

		RefreshRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of scheduled refreshes by status",
		}, []string{"status"}),
		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful scheduled refresh",
		}),

		gatherer: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordQueueBuild records a queue build and, on success, the section sizes.
func (m *Metrics) RecordQueueBuild(sections map[string]int, err error) {
	if m == nil {
		return
	}
	m.QueueBuildsTotal.WithLabelValues(status(err)).Inc()
	for section, n := range sections {
		m.QueueItems.WithLabelValues(section).Set(float64(n))
	}
}

// RecordComparison records a scenario comparison and each failed rule.
func (m *Metrics) RecordComparison(bufferSafe bool, failedRuleTypes []string, err error) {
	if m == nil {
		return
	}
	outcome := "error"
	if err == nil {
		outcome = "safe"
		if !bufferSafe {
			outcome = "unsafe"
		}
	}
	m.ComparisonsTotal.WithLabelValues(outcome).Inc()
	for _, rt := range failedRuleTypes {
		m.RuleFailuresTotal.WithLabelValues(rt).Inc()
	}
}

// RecordBreachWeeks records the size of a danger zone.
func (m *Metrics) RecordBreachWeeks(weeks int) {
	if m == nil {
		return
	}
	m.BreachWeeks.Observe(float64(weeks))
}

// RecordOperation records an engine operation's duration.
func (m *Metrics) RecordOperation(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// AddWSClients adjusts the connected stream client gauge.
func (m *Metrics) AddWSClients(delta int) {
	if m == nil {
		return
	}
	m.WSClients.Add(float64(delta))
}

// RecordRefresh records a scheduled refresh run.
func (m *Metrics) RecordRefresh(unixSeconds int64, err error) {
	if m == nil {
		return
	}
	m.RefreshRunsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.LastSuccessfulRefresh.Set(float64(unixSeconds))
	}
}
