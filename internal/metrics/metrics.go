// Package metrics provides Prometheus metrics collection for the
// explanation service. It defines and manages counters and histograms for
// engine runs, scorer traffic, and report storage, exposed via the
// Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the explanation service.
type Metrics struct {
	// Engine runs
	ImportanceRuns prometheus.Counter   // Completed permutation importance computations
	PDPRuns        prometheus.Counter   // Completed partial dependence computations
	ICERuns        prometheus.Counter   // Completed ICE computations
	EngineLatency  prometheus.Histogram // End-to-end engine latency in seconds

	// Scorer traffic
	ScorerCalls    prometheus.Counter // Scoring function invocations
	ScorerFailures prometheus.Counter // Scoring function failures
	NaNExclusions  prometheus.Counter // Predictions excluded from means as NaN

	// Storage and API
	ReportsStored prometheus.Counter // Explanation reports persisted
	RequestsTotal prometheus.Counter // Explanation API requests served
	ErrorsTotal   prometheus.Counter // Errors encountered serving requests
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, allowing isolated
// metric collection in tests without touching the global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ImportanceRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "importance_runs_total",
			Help: "Completed permutation importance computations",
		}),
		PDPRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdp_runs_total",
			Help: "Completed partial dependence computations",
		}),
		ICERuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "ice_runs_total",
			Help: "Completed individual conditional expectation computations",
		}),
		EngineLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_latency_seconds",
			Help:    "End-to-end explanation engine latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),
		ScorerCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "scorer_calls_total",
			Help: "Total number of scoring function invocations",
		}),
		ScorerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "scorer_failures_total",
			Help: "Total number of scoring function failures",
		}),
		NaNExclusions: factory.NewCounter(prometheus.CounterOpts{
			Name: "nan_exclusions_total",
			Help: "Predictions excluded from partial dependence means as NaN",
		}),
		ReportsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "reports_stored_total",
			Help: "Explanation reports persisted to storage",
		}),
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Explanation API requests served",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
