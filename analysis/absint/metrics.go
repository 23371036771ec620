package absint

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects fixpoint statistics on its own registry, so that
// several analyses in one process never collide. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	steps       prometheus.Counter
	runs        *prometheus.CounterVec
	summaryHits prometheus.Counter
	unresolved  prometheus.Counter
	aborts      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// Kinds of CFG runs.
const (
	runScript    = "script"
	runCall      = "call"
	runCallback  = "callback"
	runReachable = "reachable"
)

// Abort reasons.
const (
	abortDeadline = "deadline"
	abortSteps    = "steps"
)

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chai",
			Subsystem: "fixpoint",
			Name:      "steps_total",
			Help:      "Worklist steps taken over all CFG runs",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chai",
			Subsystem: "fixpoint",
			Name:      "runs_total",
			Help:      "CFG runs by the reason the CFG was analysed",
		}, []string{"kind"}),
		summaryHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chai",
			Subsystem: "calls",
			Name:      "summary_hits_total",
			Help:      "Callee runs skipped because the entry state was already covered",
		}),
		unresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chai",
			Subsystem: "calls",
			Name:      "unresolved_total",
			Help:      "Calls whose target could not be resolved to a function",
		}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chai",
			Subsystem: "fixpoint",
			Name:      "aborts_total",
			Help:      "Runs cut short by the watchdog or the step budget",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chai",
			Subsystem: "fixpoint",
			Name:      "duration_seconds",
			Help:      "Time to analyse one program version",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"version"}),
	}

	m.registry.MustRegister(m.steps, m.runs, m.summaryHits, m.unresolved, m.aborts, m.duration)
	return m
}

// Enabled holds when metrics are being collected.
func (m *Metrics) Enabled() bool {
	return m != nil
}

// Registry exposes the collectors, e.g. for a /metrics handler or for
// dumping after a run.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.Enabled() {
		return nil
	}
	return m.registry
}

func (m *Metrics) step() {
	if m.Enabled() {
		m.steps.Inc()
	}
}

func (m *Metrics) run(kind string) {
	if m.Enabled() {
		m.runs.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) summaryHit() {
	if m.Enabled() {
		m.summaryHits.Inc()
	}
}

func (m *Metrics) unresolvedCall() {
	if m.Enabled() {
		m.unresolved.Inc()
	}
}

func (m *Metrics) abort(reason string) {
	if m.Enabled() {
		m.aborts.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) observe(version string, d time.Duration) {
	if m.Enabled() {
		m.duration.WithLabelValues(version).Observe(d.Seconds())
	}
}
