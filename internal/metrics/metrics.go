// Package metrics exposes Prometheus collectors for the orchestrator. Every
// Metrics value owns its registry so several instances can coexist in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crier"

// Metrics groups the orchestrator collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	candidates   *prometheus.CounterVec
	approvals    *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	actions      *prometheus.CounterVec
	judgeLatency *prometheus.HistogramVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.candidates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_total",
		Help:      "Curation candidates by evaluation outcome",
	}, []string{"outcome"})
	m.approvals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approvals_total",
		Help:      "Approval requests by returned decision",
	}, []string{"decision"})
	m.decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Decision events processed, by token and whether a waiter was resolved",
	}, []string{"decision", "resolved"})
	m.actions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Executed actions by tier and resulting status",
	}, []string{"tier", "status"})
	m.judgeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "judge_request_duration_seconds",
		Help:      "Judge call latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	m.registry.MustRegister(m.candidates, m.approvals, m.decisions, m.actions, m.judgeLatency)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Candidate counts a candidate outcome (filtered, approved, rejected, failed).
func (m *Metrics) Candidate(outcome string) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(outcome).Inc()
}

// Approval counts a decision returned by the approval coordinator.
func (m *Metrics) Approval(decision string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(decision).Inc()
}

// Decision counts a processed decision event.
func (m *Metrics) Decision(decision string, resolved bool) {
	if m == nil {
		return
	}
	label := "false"
	if resolved {
		label = "true"
	}
	m.decisions.WithLabelValues(decision, label).Inc()
}

// Action counts an executed action.
func (m *Metrics) Action(tier, status string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(tier, status).Inc()
}

// ObserveJudge records a judge call duration.
func (m *Metrics) ObserveJudge(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.judgeLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
