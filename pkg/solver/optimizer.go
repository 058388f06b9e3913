package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/internal/metrics"
	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/core"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

// Optimizer runs the planning pipeline: validate, expand demand, convert
// loads, slice, build the model, solve and extract the fleet.
type Optimizer struct {
	engine  mip.Engine
	timeout time.Duration

	solutionTimeMsec atomic.Int64
}

type Option func(*Optimizer)

// WithTimeout bounds the solve; expiry is reported as no feasible allocation.
func WithTimeout(d time.Duration) Option {
	return func(o *Optimizer) {
		o.timeout = d
	}
}

func NewOptimizer(engine mip.Engine, opts ...Option) *Optimizer {
	o := &Optimizer{engine: engine}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewOptimizerFromSpec creates an optimizer with the engine and time limit
// named in the spec.
func NewOptimizerFromSpec(spec *config.PlannerSpec, engineOpts EngineOptions) (*Optimizer, error) {
	s := spec.WithDefaults()
	timeout := time.Duration(s.TimeLimitSeconds) * time.Second
	if engineOpts.TimeLimit == 0 {
		engineOpts.TimeLimit = timeout
	}
	engine, err := NewEngine(s.Engine, engineOpts)
	if err != nil {
		return nil, err
	}
	return NewOptimizer(engine, WithTimeout(timeout)), nil
}

// Engine returns the solving engine.
func (o *Optimizer) Engine() mip.Engine {
	return o.engine
}

// Optimize plans the minimum-cost fleet for spec. The spec is not modified.
//
// Errors match config.ErrInvalidSpec for rejected input, ErrNoFeasibleAllocation
// when the engine reports a non-optimal status (including timeout) and
// mip.ErrEngine when the engine fails.
func (o *Optimizer) Optimize(ctx context.Context, spec *config.PlannerSpec) (*Solution, error) {
	startTime := time.Now()
	sol, err := o.optimize(ctx, spec)
	elapsed := time.Since(startTime)
	o.solutionTimeMsec.Store(elapsed.Milliseconds())

	metrics.ObservePlanningRun(o.engine.Name(), Outcome(err), elapsed)
	if err != nil {
		return nil, err
	}
	sol.SolutionTimeMsec = elapsed.Milliseconds()
	sol.Engine = o.engine.Name()
	metrics.SetRecommendedInstances(sol.Fleet)
	return sol, nil
}

func (o *Optimizer) optimize(ctx context.Context, spec *config.PlannerSpec) (*Solution, error) {
	s := spec.WithDefaults()
	if err := config.Validate(&s); err != nil {
		logger.Log.Debugw("planner spec rejected", "error", err)
		return nil, err
	}
	if sum, ok := core.CheckNormalized(s.WorkloadDistribution, config.NormalizationWarnThreshold); !ok {
		logger.Log.Warnw("workload distribution is not normalized, using it as given", "sum", sum)
	}

	hist, err := core.ExpandDemand(s.WorkloadDistribution, s.TotalRequestRate)
	if err != nil {
		return nil, err
	}

	profiles := s.Profiles()
	types := make([]string, len(profiles))
	costs := make([]float64, len(profiles))
	loads := make(map[string]core.Grid, len(profiles))
	for j, p := range profiles {
		types[j] = p.Name
		costs[j] = p.Cost
		if loads[p.Name], err = core.TputsToLoads(p.Tputs); err != nil {
			return nil, fmt.Errorf("accelerator %s: %w", p.Name, err)
		}
	}

	sl, err := core.Slice(hist, loads, types, s.SliceFactor)
	if err != nil {
		return nil, err
	}
	model, err := BuildModel(sl, costs)
	if err != nil {
		return nil, err
	}
	logger.Log.Debugw("model built", "slices", sl.Len(), "types", types,
		"vars", model.Problem().NumVars(), "constraints", len(model.Problem().Constraints))

	solveCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	res, err := o.engine.Solve(solveCtx, model.Problem())
	if err != nil {
		if solveCtx.Err() != nil {
			// an engine killed by the deadline did not fail on its own
			logger.Log.Warnw("solve interrupted", "engine", o.engine.Name(), "error", err)
			return nil, &NoFeasibleError{Status: mip.NotSolved}
		}
		if !errors.Is(err, mip.ErrEngine) {
			err = &mip.EngineError{Engine: o.engine.Name(), Err: err}
		}
		logger.Log.Errorw("solver engine failed", "engine", o.engine.Name(), "error", err)
		return nil, err
	}
	if res.Status != mip.Optimal {
		logger.Log.Warnw("no feasible allocation", "engine", o.engine.Name(), "status", res.Status.String())
	}
	sol, err := Extract(model, res)
	if err != nil {
		return nil, err
	}
	logger.Log.Debugw("fleet planned", "fleet", sol.Fleet, "cost", sol.TotalCost)
	return sol, nil
}

// Outcome classifies the result of a planning run for metrics and exit codes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOptimal
	case errors.Is(err, config.ErrInvalidSpec), errors.Is(err, core.ErrDomain):
		return OutcomeInvalid
	case errors.Is(err, ErrNoFeasibleAllocation):
		return OutcomeInfeasible
	default:
		return OutcomeEngineFailure
	}
}

const (
	OutcomeOptimal       = "optimal"
	OutcomeInvalid       = "invalid"
	OutcomeInfeasible    = "infeasible"
	OutcomeEngineFailure = "engine_failure"
)

// GetSolutionTimeMsec returns the duration of the last Optimize call.
func (o *Optimizer) GetSolutionTimeMsec() int64 {
	return o.solutionTimeMsec.Load()
}

func (o *Optimizer) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Optimizer: engine=%s; timeout=%v \n", o.engine.Name(), o.timeout)
	fmt.Fprintf(&b, "Solution time: %d msec\n", o.solutionTimeMsec.Load())
	return b.String()
}
