package manager

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/core"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

// BaselineTolerance absorbs floating error before rounding a total load up
var BaselineTolerance = 1e-9

type Manager struct {
	optimizer *solver.Optimizer
}

func NewManager(optimizer *solver.Optimizer) *Manager {
	return &Manager{
		optimizer: optimizer,
	}
}

func (m *Manager) Optimizer() *solver.Optimizer {
	return m.optimizer
}

// Plan computes the minimum-cost fleet for one scenario.
func (m *Manager) Plan(ctx context.Context, spec *config.PlannerSpec) (*solver.Solution, error) {
	return m.optimizer.Optimize(ctx, spec)
}

// Result of planning one scenario of a sweep
type Scenario struct {
	Rate     float64
	Solution *solver.Solution
	Err      error
}

// Sweep plans the spec at each of the given total request rates. Scenarios run
// concurrently, each on its own model; results are returned in rate order.
// A scenario that cannot be planned carries its error, the sweep only fails
// when the spec is invalid or the context is done.
func (m *Manager) Sweep(ctx context.Context, spec *config.PlannerSpec, rates []float64) ([]Scenario, error) {
	base := spec.WithDefaults()
	// the rate is checked per scenario
	shared := base
	shared.TotalRequestRate = 0
	if err := config.Validate(&shared); err != nil {
		return nil, err
	}

	results := make([]Scenario, len(rates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MaxParallelScenarios)
	for i, rate := range rates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := base
			s.TotalRequestRate = rate
			sol, err := m.optimizer.Optimize(gctx, &s)
			results[i] = Scenario{Rate: rate, Solution: sol, Err: err}
			if err != nil {
				logger.Log.Warnw("scenario not planned", "rate", rate, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Fleet made of a single accelerator type serving all demand
type HomogeneousBaseline struct {
	Type  string  `json:"type"`
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

// Savings returns how much cheaper a fleet of the given cost is than the baseline.
func (b HomogeneousBaseline) Savings(cost float64) float64 {
	return b.Cost - cost
}

// SavingsPercent returns Savings as a percentage of the baseline cost.
func (b HomogeneousBaseline) SavingsPercent(cost float64) float64 {
	if b.Cost == 0 {
		return 0
	}
	return 100 * b.Savings(cost) / b.Cost
}

// CompareHomogeneous computes, for every accelerator type, the cheapest fleet
// of only that type: ceil of the total load, times its unit cost. Each
// baseline is a feasible allocation, so an optimal fleet never costs more.
func CompareHomogeneous(spec *config.PlannerSpec) ([]HomogeneousBaseline, error) {
	s := spec.WithDefaults()
	if err := config.Validate(&s); err != nil {
		return nil, err
	}
	hist, err := core.ExpandDemand(s.WorkloadDistribution, s.TotalRequestRate)
	if err != nil {
		return nil, err
	}
	profiles := s.Profiles()
	baselines := make([]HomogeneousBaseline, 0, len(profiles))
	for _, p := range profiles {
		loads, err := core.TputsToLoads(p.Tputs)
		if err != nil {
			return nil, fmt.Errorf("accelerator %s: %w", p.Name, err)
		}
		total, err := core.TotalLoad(hist, loads)
		if err != nil {
			return nil, fmt.Errorf("accelerator %s: %w", p.Name, err)
		}
		count := int(math.Max(0, math.Ceil(total-BaselineTolerance)))
		baselines = append(baselines, HomogeneousBaseline{
			Type:  p.Name,
			Count: count,
			Cost:  float64(count) * p.Cost,
		})
	}
	return baselines, nil
}
