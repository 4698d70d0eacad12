package report

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics describe the most recent run. They are exported through the
// node_exporter textfile collector, which replaces the file every run, so
// everything is a gauge of the last run rather than a cumulative counter.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	lastRun         prometheus.Gauge
	hibernated      prometheus.Gauge
	killed          prometheus.Gauge
	attemptOutcome  *prometheus.GaugeVec
	attemptDuration *prometheus.GaugeVec
	decisions       *prometheus.GaugeVec
}

// NewMetrics creates the run metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hibretry_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		hibernated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hibretry_last_run_hibernated",
			Help: "1 if the last run hibernated the machine, 0 otherwise",
		}),
		killed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hibretry_last_run_killed_names",
			Help: "Distinct process names killed by the last remediation pass",
		}),
		attemptOutcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hibretry_last_run_attempt_outcome",
			Help: "Outcome of each hibernate attempt of the last run",
		}, []string{"attempt", "outcome"}),
		attemptDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hibretry_last_run_attempt_duration_seconds",
			Help: "Wall time of each hibernate attempt of the last run",
		}, []string{"attempt"}),
		decisions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hibretry_last_run_candidates",
			Help: "Candidate process names of the last remediation pass by decision",
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		m.lastRun,
		m.hibernated,
		m.killed,
		m.attemptOutcome,
		m.attemptDuration,
		m.decisions,
	)

	return m
}

// Registry returns the gatherer holding the run metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt records the outcome of a completed hibernate attempt
func (m *Metrics) RecordAttempt(a Attempt) {
	if m == nil {
		return
	}
	n := strconv.Itoa(a.Number)
	m.attemptOutcome.WithLabelValues(n, a.Outcome.String()).Set(1)
	m.attemptDuration.WithLabelValues(n).Set(a.Duration.Seconds())
}

// RecordDecision counts one candidate decision
func (m *Metrics) RecordDecision(action string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action).Inc()
}

// RecordResult records the run-level outcome.
// This is the only place run-level gauges are set.
func (m *Metrics) RecordResult(r *Result) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(r.EndTime.Unix()))
	m.killed.Set(float64(r.Killed))
	if r.Hibernated {
		m.hibernated.Set(1)
	} else {
		m.hibernated.Set(0)
	}
}

// DecisionGauge returns the per-run count for one decision
func (m *Metrics) DecisionGauge(action string) prometheus.Gauge {
	return m.decisions.WithLabelValues(action)
}

// HibernatedGauge returns the last-run outcome gauge
func (m *Metrics) HibernatedGauge() prometheus.Gauge {
	return m.hibernated
}

// KilledGauge returns the last-run killed-names gauge
func (m *Metrics) KilledGauge() prometheus.Gauge {
	return m.killed
}
