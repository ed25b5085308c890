package opt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quboassign/internal/events"
	"quboassign/internal/geo"
	"quboassign/internal/metrics"
	"quboassign/internal/model"
	"quboassign/internal/qubo"
	"quboassign/internal/reduce"
	"quboassign/internal/repair"
	"quboassign/internal/warmstart"
)

// DefaultLayers is the warm-start depth when Options.Layers is zero.
const DefaultLayers = 2

// Options tunes a single Optimize call.
type Options struct {
	Strategy  Strategy
	Penalty   qubo.PenaltyMode // nil means auto
	Reduction reduce.Options
	Repair    repair.Options
	WarmStart bool
	Layers    int
	PlanTours bool
	// TourIterations bounds 2-opt passes per tour.
	TourIterations int
	// Seed is handed to the sampler; clustering uses Reduction.Cluster.Seed.
	Seed int64
}

// DefaultOptions mirrors the documented configuration defaults.
func DefaultOptions() Options {
	return Options{
		Strategy:       StrategyAuto,
		Penalty:        qubo.AutoPenalty{},
		Reduction:      reduce.DefaultOptions(),
		Repair:         repair.Options{MaxIterations: repair.DefaultMaxIterations},
		Layers:         DefaultLayers,
		TourIterations: 50,
	}
}

// Request is one assignment problem plus optional external inputs.
type Request struct {
	Problem model.Problem
	// Samples are bitstrings from an external sampler.
	Samples []string
	// Baseline is a classical {customerId -> warehouseId} solution used for
	// warm start.
	Baseline map[string]string
	Options  Options
}

// Result is a repaired assignment with its diagnostics.
type Result struct {
	RunID          string                   `json:"runId"`
	Strategy       Strategy                 `json:"strategy"`
	StrategyReason string                   `json:"strategyReason"`
	Assignment     map[string]string        `json:"assignment"`
	Records        []model.AssignmentRecord `json:"records"`
	Aggregate      model.Aggregate          `json:"aggregate"`
	Penalties      *qubo.Penalties          `json:"penalties,omitempty"`
	Original       reduce.Size              `json:"originalSize"`
	Reduced        reduce.Size              `json:"reducedSize"`
	Variables      int                      `json:"variables"`
	Clusters       reduce.ClusterMap        `json:"clusters,omitempty"`
	Eliminated     int                      `json:"eliminatedPairs"`
	Fallbacks      []string                 `json:"fallbacks,omitempty"`
	WarmStart      *warmstart.Params        `json:"warmStart,omitempty"`
	Samples        int                      `json:"samplesEvaluated"`
	BestSample     int                      `json:"bestSample"`
	Bitstring      string                   `json:"bitstring,omitempty"`
	RepairMoves    int                      `json:"repairMoves"`
	Tours          []Tour                   `json:"tours,omitempty"`
	Warnings       []model.Warning          `json:"warnings,omitempty"`
	Duration       time.Duration            `json:"duration"`

	QUBO        *qubo.Matrix      `json:"-"`
	Hamiltonian *qubo.Hamiltonian `json:"-"`
}

// Summary condenses r for side-by-side comparison.
func (r *Result) Summary(label string) Summary {
	return Summary{
		RunID:     r.RunID,
		Label:     label,
		Strategy:  r.Strategy,
		Aggregate: r.Aggregate,
		Variables: r.Variables,
		Warnings:  len(r.Warnings),
		Duration:  r.Duration,
	}
}

// Engine runs the assignment pipeline. It holds no per-run state, so one
// Engine may serve concurrent Optimize calls.
type Engine struct {
	log     *zap.Logger
	sampler Sampler
	metrics *metrics.Optimizer
	events  events.Publisher
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSampler sets the sampler used by StrategySampler.
func WithSampler(s Sampler) EngineOption { return func(e *Engine) { e.sampler = s } }

// WithMetrics sets the collectors observed after every run.
func WithMetrics(m *metrics.Optimizer) EngineOption { return func(e *Engine) { e.metrics = m } }

// WithEvents sets where run progress is published; nil discards it.
func WithEvents(p events.Publisher) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.events = p
		}
	}
}

// NewEngine builds an Engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{log: zap.NewNop(), events: events.Discard}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Optimize validates req, produces candidates with the resolved strategy,
// repairs them and returns the best assignment. Structural problems are
// returned as *model.InputShapeError; everything else degrades into
// warnings on the result. ctx is only checked between samples.
func (e *Engine) Optimize(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.log.With(zap.String("run_id", runID))
	strategy := req.Options.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}

	defer func() {
		run := metrics.Run{Strategy: string(strategy), Err: err, Duration: time.Since(start)}
		if res != nil {
			run.Variables = res.Variables
			run.OriginalVars = res.Original.Variables()
			run.RepairMoves = res.RepairMoves
			run.SamplesEvaluated = res.Samples
			for _, w := range res.Warnings {
				run.Warnings = append(run.Warnings, string(w.Kind))
			}
		}
		e.metrics.Observe(run)
		if err != nil {
			log.Warn("optimize failed", zap.String("strategy", string(strategy)), zap.Error(err))
			e.emit(runID, events.RunFailed, map[string]any{"error": err.Error()})
			return
		}
		e.emit(runID, events.RunCompleted, map[string]any{
			"strategy":       string(strategy),
			"totalCost":      res.Aggregate.TotalCost,
			"warehousesUsed": res.Aggregate.WarehousesUsed,
			"warnings":       len(res.Warnings),
			"durationMs":     res.Duration.Milliseconds(),
		})
	}()

	if err = validateRequest(&req); err != nil {
		return nil, err
	}
	var reason string
	requested := strategy
	strategy, reason, err = resolveStrategy(requested, len(req.Samples) > 0, e.sampler != nil)
	if err != nil {
		strategy = requested
		return nil, err
	}
	log.Info("strategy resolved",
		zap.String("requested", string(requested)),
		zap.String("strategy", string(strategy)),
		zap.String("reason", reason))
	e.emit(runID, events.RunStarted, map[string]any{
		"strategy":   string(strategy),
		"customers":  len(req.Problem.Customers),
		"warehouses": len(req.Problem.Warehouses),
	})

	p := req.Problem
	p.Distances = geo.Resolve(p)
	size := reduce.Size{Warehouses: len(p.Warehouses), Customers: len(p.Customers)}
	res = &Result{
		RunID:          runID,
		Strategy:       strategy,
		StrategyReason: reason,
		Original:       size,
		Reduced:        size,
		BestSample:     -1,
	}

	var choice []int
	if strategy == StrategyGreedy {
		choice = greedyChoice(log, p)
	} else {
		choice, err = e.solveQUBO(ctx, log, req, p, strategy, res)
		if err != nil {
			return nil, err
		}
	}

	final := repair.RepairCapacity(choice, p, p.Distances, req.Options.Repair)
	res.RepairMoves += final.Moves
	res.Warnings = append(res.Warnings, final.Warnings...)
	res.Assignment = repair.ToMap(final.Choice, p)
	res.Records = repair.Records(final.Choice, p, p.Distances)
	res.Aggregate = model.Summarize(res.Records)
	if req.Options.PlanTours {
		res.Tours = PlanTours(p, final.Choice, req.Options.TourIterations)
	}
	res.Duration = time.Since(start)

	log.Info("optimize done",
		zap.String("strategy", string(strategy)),
		zap.Int("customers", size.Customers),
		zap.Int("warehouses", size.Warehouses),
		zap.Float64("total_cost", res.Aggregate.TotalCost),
		zap.Int("warehouses_used", res.Aggregate.WarehousesUsed),
		zap.Int("repair_moves", res.RepairMoves),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("duration", res.Duration))
	for _, w := range res.Warnings {
		log.Warn("result warning", zap.String("kind", string(w.Kind)), zap.String("message", w.Message))
	}
	return res, nil
}

// Model is a reduced problem together with its QUBO and Ising forms.
type Model struct {
	Reduction   *reduce.Reduction
	Penalties   qubo.Penalties
	QUBO        *qubo.Matrix
	Hamiltonian *qubo.Hamiltonian
}

// BuildModel reduces p, calibrates penalties and builds the QUBO and its
// Hamiltonian. Distances are derived from coordinates when p has none.
// Pairs removed by dominance elimination carry an extra diagonal penalty.
func BuildModel(p model.Problem, opts Options) (*Model, error) {
	if err := p.Validate("opt.BuildModel"); err != nil {
		return nil, err
	}
	p.Distances = geo.Resolve(p)
	red, err := reduce.Reduce(p, p.Distances, opts.Reduction)
	if err != nil {
		return nil, err
	}
	rp := red.Problem
	pen, err := qubo.Resolve(opts.Penalty, rp.Distances, rp.Warehouses, rp.Customers)
	if err != nil {
		return nil, err
	}
	q, err := qubo.Build(rp.Distances, pen.Assignment, red.Mask())
	if err != nil {
		return nil, err
	}
	return &Model{Reduction: red, Penalties: pen, QUBO: q, Hamiltonian: qubo.ToIsing(q)}, nil
}

// solveQUBO builds and samples the model, then returns the best repaired
// sample expanded onto the full problem.
func (e *Engine) solveQUBO(ctx context.Context, log *zap.Logger, req Request, p model.Problem, strategy Strategy, res *Result) ([]int, error) {
	opts := req.Options
	mdl, err := BuildModel(p, opts)
	if err != nil {
		return nil, err
	}
	red, pen, q, h := mdl.Reduction, mdl.Penalties, mdl.QUBO, mdl.Hamiltonian
	rp := red.Problem
	res.Reduced = red.Reduced
	res.Clusters = red.Clusters
	if red.Dominance != nil {
		res.Eliminated = len(red.Dominance.Eliminated)
	}
	log.Info("problem reduced",
		zap.Int("customers_before", red.Original.Customers),
		zap.Int("customers_after", red.Reduced.Customers),
		zap.Bool("clustered", red.Clustered()),
		zap.Int("eliminated_pairs", res.Eliminated))
	e.emit(res.RunID, events.RunReduced, map[string]any{
		"customers":  red.Reduced.Customers,
		"warehouses": red.Reduced.Warehouses,
		"variables":  red.Reduced.Variables(),
		"eliminated": res.Eliminated,
	})

	res.Penalties = &pen
	res.Warnings = append(res.Warnings, pen.Warnings...)
	res.QUBO, res.Hamiltonian, res.Variables = q, h, q.Size()
	log.Info("qubo built",
		zap.Int("variables", q.Size()),
		zap.Int("nonzero", q.NonZero()),
		zap.String("penalty_mode", pen.Mode),
		zap.Float64("penalty_assignment", pen.Assignment),
		zap.Float64("penalty_capacity", pen.Capacity))

	job := SampleJob{Seed: opts.Seed}
	if opts.WarmStart {
		baseline := req.Baseline
		if len(baseline) == 0 {
			baseline = repair.ToMap(greedyChoice(log, p), p)
		}
		layers := opts.Layers
		if layers == 0 {
			layers = DefaultLayers
		}
		ws := warmstart.Generate(baseline, layers)
		res.WarmStart = &ws
		job.WarmStart = ws.Vector()
		log.Debug("warm start", zap.Float64("balance", ws.Balance), zap.Float64s("params", job.WarmStart))
	}

	samples := req.Samples
	if strategy == StrategySampler {
		samples, err = e.sampler.Sample(ctx, h, job)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil || len(samples) == 0 {
			cause := "no samples returned"
			if err != nil {
				cause = err.Error()
			}
			res.Warnings = append(res.Warnings, model.Warnf(model.SamplerFailed, "%s; repairing an empty sample", cause))
			samples = []string{""}
		}
	}

	n, m := len(rp.Warehouses), len(rp.Customers)
	var best *repair.Result
	bestCost, bestFeasible := 0.0, false
	for k, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := repair.Decode(s, n, m)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", k, err)
		}
		r, err := repair.Repair(a, rp, rp.Distances, opts.Repair)
		if err != nil {
			return nil, err
		}
		res.Samples++
		cost := repair.TotalCost(r.Choice, rp.Distances)
		feasible := len(r.Overloaded(rp.Warehouses)) == 0
		e.emit(res.RunID, events.RunSample, map[string]any{
			"index":    k,
			"of":       len(samples),
			"cost":     cost,
			"feasible": feasible,
		})
		if best == nil || (feasible && !bestFeasible) || (feasible == bestFeasible && cost < bestCost) {
			best, bestCost, bestFeasible = r, cost, feasible
			res.BestSample, res.Bitstring = k, s
		}
	}
	res.RepairMoves += best.Moves
	log.Info("samples evaluated",
		zap.Int("samples", res.Samples),
		zap.Int("best", res.BestSample),
		zap.Float64("best_cost", bestCost),
		zap.Bool("feasible", bestFeasible))

	if !red.Clustered() {
		return best.Choice, nil
	}
	exp, err := reduce.Expand(repair.ToMap(best.Choice, rp), red.Clusters, p, p.Distances)
	if err != nil {
		return nil, err
	}
	res.Fallbacks = exp.Fallbacks
	return repair.FromMap(exp.Assignment, p)
}

func (e *Engine) emit(runID, typ string, data map[string]any) {
	e.events.Publish(events.Event{RunID: runID, Type: typ, Time: time.Now().UTC(), Data: data})
}

// greedyChoice logs the baseline's overflow. The result carries only the
// final repair's warnings, which re-check the same loads.
func greedyChoice(log *zap.Logger, p model.Problem) []int {
	choice, warnings := GreedyBaseline(p, p.Distances)
	for _, w := range warnings {
		log.Info("greedy baseline warning", zap.String("kind", string(w.Kind)), zap.String("message", w.Message))
	}
	return choice
}
