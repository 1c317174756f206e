// Package metrics holds the Prometheus collectors of the orchestrator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealroom"

// Metrics groups the pipeline collectors. A nil *Metrics records nothing, so
// components can be built without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	retrievalLatency  *prometheus.HistogramVec
	retrievalDegraded *prometheus.CounterVec
	uncertainty       *prometheus.CounterVec
	outcomes          *prometheus.CounterVec
	errors            *prometheus.CounterVec
	findings          *prometheus.CounterVec
	generationCalls   prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		retrievalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Latency of retrieval backend calls by method.",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method"}),
		retrievalDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_degraded_total",
			Help:      "Retrievals that returned no citations because the backend failed.",
		}, []string{"method"}),
		uncertainty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uncertainty_level_total",
			Help:      "Turns by detected uncertainty level.",
		}, []string{"level"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Dispatcher outcomes by kind and specialist.",
		}, []string{"outcome", "specialist"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_errors_total",
			Help:      "Classified agent errors by code.",
		}, []string{"code"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_findings_total",
			Help:      "Soft validation findings by rule.",
		}, []string{"rule"}),
		generationCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Generation backend calls issued by the dispatcher.",
		}),
	}
	reg.MustRegister(
		m.retrievalLatency,
		m.retrievalDegraded,
		m.uncertainty,
		m.outcomes,
		m.errors,
		m.findings,
		m.generationCalls,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRetrieval(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.retrievalLatency.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) RetrievalDegraded(method string) {
	if m == nil {
		return
	}
	m.retrievalDegraded.WithLabelValues(method).Inc()
}

func (m *Metrics) Uncertainty(level string) {
	if m == nil {
		return
	}
	m.uncertainty.WithLabelValues(level).Inc()
}

// Outcome counts a dispatcher outcome. specialist is empty unless delegated.
func (m *Metrics) Outcome(outcome, specialist string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome, specialist).Inc()
}

func (m *Metrics) Error(code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(code).Inc()
}

func (m *Metrics) Finding(rule string) {
	if m == nil {
		return
	}
	m.findings.WithLabelValues(rule).Inc()
}

func (m *Metrics) GenerationCall() {
	if m == nil {
		return
	}
	m.generationCalls.Inc()
}
