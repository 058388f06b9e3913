package solver

import (
	"fmt"

	"github.com/llm-d-incubation/fleet-planner/pkg/core"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

// Model is the fleet-sizing MIP built over a set of slices.
//
//	x[i][j] in {0,1}  slice i is served by accelerator type j
//	y[j] >= 0 integer instances of type j
//	min   sum_j cost[j] * y[j]
//	C1    sum_j x[i][j] = 1                          for every slice i
//	C2    sum_i load[j][i] * rate[i] * x[i][j] <= y[j]  for every type j
type Model struct {
	problem *mip.Problem
	slices  *core.Slices
	costs   []float64

	x [][]int // variable index of x[slice][type]
	y []int   // variable index of y[type]
}

// BuildModel creates the variables, objective and constraints for the given
// slices; costs[j] is the unit cost of slices.Types[j].
func BuildModel(sl *core.Slices, costs []float64) (*Model, error) {
	numTypes := len(sl.Types)
	if numTypes == 0 {
		return nil, fmt.Errorf("no accelerator types to plan for")
	}
	if len(costs) != numTypes {
		return nil, fmt.Errorf("got %d costs for %d accelerator types", len(costs), numTypes)
	}
	numSlices := sl.Len()
	for _, t := range sl.Types {
		if len(sl.Loads[t]) != numSlices {
			return nil, fmt.Errorf("accelerator type %s has %d slice loads, expected %d", t, len(sl.Loads[t]), numSlices)
		}
	}

	m := &Model{
		problem: mip.NewProblem("GpuAllocation"),
		slices:  sl,
		costs:   append([]float64(nil), costs...),
		x:       make([][]int, numSlices),
		y:       make([]int, numTypes),
	}
	p := m.problem

	// decision matrix: binary slice-to-type assignment
	for i := 0; i < numSlices; i++ {
		m.x[i] = make([]int, numTypes)
		for j := 0; j < numTypes; j++ {
			m.x[i][j] = p.AddBinary(fmt.Sprintf("x_%d_%d", i, j))
		}
	}
	// decision vector: number of instances per type
	for j := 0; j < numTypes; j++ {
		m.y[j] = p.AddInteger(fmt.Sprintf("y_%d", j))
	}

	objective := make([]mip.Term, numTypes)
	for j := 0; j < numTypes; j++ {
		objective[j] = mip.Term{Var: m.y[j], Coef: costs[j]}
	}
	p.Minimize(objective)

	// C1: every slice is assigned to exactly one type
	for i := 0; i < numSlices; i++ {
		terms := make([]mip.Term, numTypes)
		for j := 0; j < numTypes; j++ {
			terms[j] = mip.Term{Var: m.x[i][j], Coef: 1}
		}
		p.AddConstraint(fmt.Sprintf("assign_%d", i), terms, mip.EQ, 1)
	}

	// C2: load assigned to a type fits in its provisioned instances
	for j, t := range sl.Types {
		loads := sl.Loads[t]
		terms := make([]mip.Term, 0, numSlices+1)
		for i := 0; i < numSlices; i++ {
			terms = append(terms, mip.Term{Var: m.x[i][j], Coef: loads[i] * sl.Rates[i]})
		}
		terms = append(terms, mip.Term{Var: m.y[j], Coef: -1})
		p.AddConstraint(fmt.Sprintf("capacity_%d", j), terms, mip.LE, 0)
	}
	return m, nil
}

// Problem returns the MIP to hand to an engine.
func (m *Model) Problem() *mip.Problem {
	return m.problem
}

// Types returns the accelerator types in column order.
func (m *Model) Types() []string {
	return m.slices.Types
}

// AssignVar returns the variable index of x[slice][type].
func (m *Model) AssignVar(slice, typ int) int {
	return m.x[slice][typ]
}

// CountVar returns the variable index of y[type].
func (m *Model) CountVar(typ int) int {
	return m.y[typ]
}

// AssignedLoad returns the load the assignment in values puts on type typ, in
// instances.
func (m *Model) AssignedLoad(typ int, values []float64) float64 {
	loads := m.slices.Loads[m.slices.Types[typ]]
	load := 0.0
	for i := range m.x {
		load += loads[i] * m.slices.Rates[i] * values[m.x[i][typ]]
	}
	return load
}
