// Package metrics exposes the prometheus collectors shared by the services,
// the MCP server and the REST API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	AnalysesTotal   *prometheus.CounterVec   // labels: action
	ErrorsTotal     *prometheus.CounterVec   // labels: operation, kind
	ProviderFetches *prometheus.CounterVec   // labels: provider, outcome
	ProviderLatency *prometheus.HistogramVec // labels: provider
	BatchSize       prometheus.Histogram
	CacheLookups    *prometheus.CounterVec // labels: result=hit|miss
	ToolCalls       *prometheus.CounterVec // labels: tool

	gatherer prometheus.Gatherer
}

// New builds the collectors and registers them on reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twstock_analyses_total",
			Help: "Completed stock analyses by recommended action",
		}, []string{"action"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twstock_errors_total",
			Help: "Failed operations by error kind",
		}, []string{"operation", "kind"}),
		ProviderFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twstock_provider_fetches_total",
			Help: "Price provider fetches by outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twstock_provider_fetch_duration_seconds",
			Help:    "Price provider fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "twstock_batch_size",
			Help:    "Number of stock ids per batch analysis",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twstock_series_cache_lookups_total",
			Help: "Price series cache lookups",
		}, []string{"result"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twstock_mcp_tool_calls_total",
			Help: "MCP tool invocations",
		}, []string{"tool"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.ErrorsTotal,
		m.ProviderFetches,
		m.ProviderLatency,
		m.BatchSize,
		m.CacheLookups,
		m.ToolCalls,
	)
	return m
}

func (m *Metrics) ObserveAnalysis(action string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveError(operation, kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(operation, kind).Inc()
}

func (m *Metrics) ObserveFetch(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ProviderFetches.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveToolCall(tool string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool).Inc()
}

// Handler serves the registry this Metrics was registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
