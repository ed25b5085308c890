package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the dedicated Prometheus registry for the CLI process.
var Registry = prometheus.NewRegistry()

// Optimizer holds the collectors observed by the assignment engine. A nil
// *Optimizer is valid and records nothing.
type Optimizer struct {
	// Runs counts Optimize calls by strategy and outcome (ok, error).
	Runs *prometheus.CounterVec
	// Duration records Optimize wall time in seconds by strategy.
	Duration *prometheus.HistogramVec
	// Variables records QUBO variable counts after reduction.
	Variables prometheus.Histogram
	// ReductionRatio records reduced/original variable ratios.
	ReductionRatio prometheus.Histogram
	// Warnings counts attached warnings by kind.
	Warnings *prometheus.CounterVec
	// RepairMoves counts capacity-repair reassignments.
	RepairMoves prometheus.Counter
	// SamplesEvaluated counts decoded and repaired samples.
	SamplesEvaluated prometheus.Counter
}

// NewOptimizer builds the collectors and registers them on reg when non-nil.
func NewOptimizer(reg prometheus.Registerer) *Optimizer {
	m := &Optimizer{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "assignopt_runs_total", Help: "Optimize calls by strategy and outcome."},
			[]string{"strategy", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "assignopt_run_duration_seconds", Help: "Optimize duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"strategy"},
		),
		Variables: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "assignopt_qubo_variables", Help: "QUBO variables per run.", Buckets: prometheus.ExponentialBuckets(4, 4, 8)},
		),
		ReductionRatio: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "assignopt_reduction_ratio", Help: "Reduced over original variable count.", Buckets: prometheus.LinearBuckets(0.1, 0.1, 10)},
		),
		Warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "assignopt_warnings_total", Help: "Warnings attached to results by kind."},
			[]string{"kind"},
		),
		RepairMoves: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "assignopt_repair_moves_total", Help: "Capacity repair reassignments."},
		),
		SamplesEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "assignopt_samples_evaluated_total", Help: "Bitstring samples decoded and repaired."},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Duration, m.Variables, m.ReductionRatio, m.Warnings, m.RepairMoves, m.SamplesEvaluated)
	}
	return m
}

var (
	defaultOnce sync.Once
	defaultOpt  *Optimizer
)

// Default returns the process-wide collectors registered on Registry along
// with the Go and process collectors.
func Default() *Optimizer {
	defaultOnce.Do(func() {
		defaultOpt = NewOptimizer(Registry)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return defaultOpt
}

// Run describes one finished Optimize call.
type Run struct {
	Strategy         string
	Err              error
	Duration         time.Duration
	Variables        int
	OriginalVars     int
	Warnings         []string
	RepairMoves      int
	SamplesEvaluated int
}

// Observe records r.
func (m *Optimizer) Observe(r Run) {
	if m == nil {
		return
	}
	outcome := "ok"
	if r.Err != nil {
		outcome = "error"
	}
	m.Runs.WithLabelValues(r.Strategy, outcome).Inc()
	m.Duration.WithLabelValues(r.Strategy).Observe(r.Duration.Seconds())
	if r.Err != nil {
		return
	}
	if r.Variables > 0 {
		m.Variables.Observe(float64(r.Variables))
	}
	if r.OriginalVars > 0 && r.Variables > 0 {
		m.ReductionRatio.Observe(float64(r.Variables) / float64(r.OriginalVars))
	}
	for _, kind := range r.Warnings {
		m.Warnings.WithLabelValues(kind).Inc()
	}
	m.RepairMoves.Add(float64(r.RepairMoves))
	m.SamplesEvaluated.Add(float64(r.SamplesEvaluated))
}

// WriteTextfile writes every metric gathered from g in the node_exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
