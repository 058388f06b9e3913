package solver

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

// ErrNoFeasibleAllocation is returned when the engine reports any status
// other than Optimal.
var ErrNoFeasibleAllocation = errors.New("no feasible allocation")

// tolerance of the feasibility check on engine solutions, relative to the
// magnitude of each constraint row
var FeasibilityTolerance = 1e-6

// relative excess of the assigned load over an instance count that is taken
// as floating error rather than a missing instance
var CapacityTolerance = 1e-9

// NoFeasibleError carries the engine status behind ErrNoFeasibleAllocation.
type NoFeasibleError struct {
	Status mip.Status
}

func (e *NoFeasibleError) Error() string {
	return fmt.Sprintf("%v: solver status %s", ErrNoFeasibleAllocation, e.Status)
}

func (e *NoFeasibleError) Unwrap() error {
	return ErrNoFeasibleAllocation
}

// Solution is the recommended fleet.
type Solution struct {
	Fleet      map[string]int // accelerator type -> number of instances
	TotalCost  float64        // sum of count times unit cost
	Assignment []string       // accelerator type serving each slice

	SolutionTimeMsec int64
	Engine           string
}

// Types returns the accelerator types of the fleet in name order.
func (s *Solution) Types() []string {
	types := make([]string, 0, len(s.Fleet))
	for t := range s.Fleet {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Extract reads the fleet from a solved model. It only reads the result.
func Extract(m *Model, res *mip.Result) (*Solution, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: missing result", mip.ErrEngine)
	}
	if res.Status != mip.Optimal {
		return nil, &NoFeasibleError{Status: res.Status}
	}
	p := m.Problem()
	if len(res.Values) != p.NumVars() {
		return nil, fmt.Errorf("%w: got %d values for %d variables", mip.ErrEngine, len(res.Values), p.NumVars())
	}

	// engines may return floating approximations of integral values
	rounded := make([]float64, len(res.Values))
	for k, v := range res.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: variable %s has value %v", mip.ErrEngine, p.Vars[k].Name, v)
		}
		rounded[k] = v
		if p.Vars[k].IsInteger() {
			rounded[k] = math.Max(0, math.Round(v))
		}
	}
	m.raiseShortCounts(rounded)
	if err := p.Feasible(rounded, FeasibilityTolerance); err != nil {
		return nil, fmt.Errorf("%w: infeasible solution: %v", mip.ErrEngine, err)
	}

	types := m.Types()
	sol := &Solution{
		Fleet:      make(map[string]int, len(types)),
		Assignment: make([]string, len(m.x)),
	}
	for j, t := range types {
		count := int(rounded[m.CountVar(j)])
		sol.Fleet[t] = count
		sol.TotalCost += float64(count) * m.costs[j]
	}
	for i := range m.x {
		for j, t := range types {
			if rounded[m.AssignVar(i, j)] == 1 {
				sol.Assignment[i] = t
				break
			}
		}
	}
	return sol, nil
}

// raiseShortCounts sets every instance count below the load assigned to its
// type to the smallest count that holds it. Engines accept integrality within
// an absolute tolerance, so a tiny positive load may come back with zero
// instances.
func (m *Model) raiseShortCounts(values []float64) {
	for j, t := range m.Types() {
		load := m.AssignedLoad(j, values)
		slack := CapacityTolerance * math.Max(1, load)
		y := m.CountVar(j)
		if load <= values[y]+slack {
			continue
		}
		count := math.Ceil(load - slack)
		logger.Log.Warnw("instance count below assigned load, raised", "accelerator", t,
			"count", values[y], "load", load, "raised", count)
		values[y] = count
	}
}

func (s *Solution) String() string {
	var b bytes.Buffer
	b.WriteString("Solution: \n")
	for _, t := range s.Types() {
		fmt.Fprintf(&b, "acc=%s; count=%d \n", t, s.Fleet[t])
	}
	fmt.Fprintf(&b, "totalCost=%v \n", s.TotalCost)
	fmt.Fprintf(&b, "Solution time: %d msec\n", s.SolutionTimeMsec)
	return b.String()
}
