package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records tool outcomes and Cuti-E API latency on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	apiDurations *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cutie_mcp_tool_calls_total",
			Help: "Total MCP tool invocations",
		}, []string{"tool", "outcome"}),
		apiDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cutie_mcp_api_request_duration_seconds",
			Help:    "Cuti-E API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(m.toolCalls, m.apiDurations)
	return m
}

// ObserveTool counts one tool invocation.
func (m *Metrics) ObserveTool(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveRequest records the duration of one API round trip.
func (m *Metrics) ObserveRequest(method string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiDurations.WithLabelValues(method, statusClass(statusCode)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// statusClass groups status codes as 2xx, 4xx and so on. Zero means no
// response was received.
func statusClass(statusCode int) string {
	if statusCode <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", statusCode/100)
}
