package bnb

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

func terms(pairs ...float64) []mip.Term {
	out := make([]mip.Term, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, mip.Term{Var: int(pairs[i]), Coef: pairs[i+1]})
	}
	return out
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name       string
		build      func() *mip.Problem
		wantStatus mip.Status
		wantObj    float64
		wantValues []float64
	}{
		{
			name: "integer rounding up",
			// min y s.t. y >= 2.5
			build: func() *mip.Problem {
				p := mip.NewProblem("round-up")
				y := p.AddInteger("y")
				p.Minimize(terms(float64(y), 1))
				p.AddConstraint("cap", terms(float64(y), 1), mip.GE, 2.5)
				return p
			},
			wantStatus: mip.Optimal,
			wantObj:    3,
			wantValues: []float64{3},
		},
		{
			name: "binary knapsack",
			// max 5a + 4b + 3c s.t. 2a + 3b + c <= 5, written as a minimization
			build: func() *mip.Problem {
				p := mip.NewProblem("knapsack")
				a := p.AddBinary("a")
				b := p.AddBinary("b")
				c := p.AddBinary("c")
				p.Minimize(terms(float64(a), -5, float64(b), -4, float64(c), -3))
				p.AddConstraint("weight", terms(float64(a), 2, float64(b), 3, float64(c), 1), mip.LE, 5)
				return p
			},
			wantStatus: mip.Optimal,
			wantObj:    -9,
			wantValues: []float64{1, 1, 0},
		},
		{
			name: "mixed continuous and integer",
			// min 3y + z s.t. y + z >= 4.5, z <= 1
			build: func() *mip.Problem {
				p := mip.NewProblem("mixed")
				y := p.AddInteger("y")
				z := p.AddVar("z", mip.Continuous, 0, 1)
				p.Minimize(terms(float64(y), 3, float64(z), 1))
				p.AddConstraint("cover", terms(float64(y), 1, float64(z), 1), mip.GE, 4.5)
				return p
			},
			wantStatus: mip.Optimal,
			wantObj:    12.5,
			wantValues: []float64{4, 0.5},
		},
		{
			name: "assignment with capacity",
			// two items of size 0.6 on machines costing 1 and 1.5 per unit
			build: func() *mip.Problem {
				p := mip.NewProblem("assign")
				x00 := p.AddBinary("x_0_0")
				x01 := p.AddBinary("x_0_1")
				x10 := p.AddBinary("x_1_0")
				x11 := p.AddBinary("x_1_1")
				y0 := p.AddInteger("y_0")
				y1 := p.AddInteger("y_1")
				p.Minimize(terms(float64(y0), 1, float64(y1), 1.5))
				p.AddConstraint("c1_0", terms(float64(x00), 1, float64(x01), 1), mip.EQ, 1)
				p.AddConstraint("c1_1", terms(float64(x10), 1, float64(x11), 1), mip.EQ, 1)
				p.AddConstraint("c2_0", terms(float64(x00), 0.6, float64(x10), 0.6, float64(y0), -1), mip.LE, 0)
				p.AddConstraint("c2_1", terms(float64(x01), 0.6, float64(x11), 0.6, float64(y1), -1), mip.LE, 0)
				return p
			},
			wantStatus: mip.Optimal,
			wantObj:    2,
		},
		{
			name: "infeasible integer program",
			// 2y = 1 has no integer solution
			build: func() *mip.Problem {
				p := mip.NewProblem("parity")
				y := p.AddInteger("y")
				p.Minimize(terms(float64(y), 1))
				p.AddConstraint("odd", terms(float64(y), 2), mip.EQ, 1)
				return p
			},
			wantStatus: mip.Infeasible,
		},
		{
			name: "infeasible relaxation",
			build: func() *mip.Problem {
				p := mip.NewProblem("contradiction")
				y := p.AddVar("y", mip.Integer, 0, 2)
				p.Minimize(terms(float64(y), 1))
				p.AddConstraint("big", terms(float64(y), 1), mip.GE, 5)
				return p
			},
			wantStatus: mip.Infeasible,
		},
		{
			name: "unbounded",
			build: func() *mip.Problem {
				p := mip.NewProblem("unbounded")
				y := p.AddInteger("y")
				z := p.AddInteger("z")
				p.Minimize(terms(float64(y), -1))
				p.AddConstraint("link", terms(float64(y), 1, float64(z), -1), mip.LE, 0)
				return p
			},
			wantStatus: mip.Unbounded,
		},
		{
			name: "variable absent from constraints",
			build: func() *mip.Problem {
				p := mip.NewProblem("loose")
				y := p.AddInteger("y")
				w := p.AddVar("w", mip.Continuous, 2, math.Inf(1))
				p.Minimize(terms(float64(y), 1, float64(w), 1))
				p.AddConstraint("cap", terms(float64(y), 1), mip.GE, 1)
				return p
			},
			wantStatus: mip.Optimal,
			wantObj:    3,
			wantValues: []float64{1, 2},
		},
		{
			name: "zero demand",
			build: func() *mip.Problem {
				p := mip.NewProblem("zero")
				x := p.AddBinary("x")
				y := p.AddInteger("y")
				p.Minimize(terms(float64(y), 1))
				p.AddConstraint("assign", terms(float64(x), 1), mip.EQ, 1)
				p.AddConstraint("cap", terms(float64(x), 0, float64(y), -1), mip.LE, 0)
				return p
			},
			wantStatus: mip.Optimal,
			wantObj:    0,
			wantValues: []float64{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.build()
			res, err := New().Solve(context.Background(), p)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, res.Status, res.String())
			if tt.wantStatus != mip.Optimal {
				assert.Nil(t, res.Values)
				return
			}
			require.Len(t, res.Values, p.NumVars())
			assert.NoError(t, p.Feasible(res.Values, 1e-6))
			assert.InDelta(t, tt.wantObj, res.Objective, 1e-6)
			if tt.wantValues != nil {
				assert.InDeltaSlice(t, tt.wantValues, res.Values, 1e-6)
			}
		})
	}
}

func TestSolveCancelled(t *testing.T) {
	p := mip.NewProblem("cancelled")
	y := p.AddInteger("y")
	p.Minimize(terms(float64(y), 1))
	p.AddConstraint("cap", terms(float64(y), 1), mip.GE, 2.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New().Solve(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, mip.NotSolved, res.Status)
}

func TestSolveNodeLimit(t *testing.T) {
	p := mip.NewProblem("limited")
	y := p.AddInteger("y")
	p.Minimize(terms(float64(y), 1))
	p.AddConstraint("cap", terms(float64(y), 1), mip.GE, 2.5)

	// the root relaxation is fractional, so one node cannot prove optimality
	res, err := New(WithNodeLimit(1)).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, mip.NotSolved, res.Status)
	assert.Equal(t, 1, res.Nodes)
}

func TestSolveMalformedProblem(t *testing.T) {
	p := mip.NewProblem("malformed")
	p.AddInteger("y")
	p.AddConstraint("dangling", terms(3, 1), mip.LE, 1)

	_, err := New().Solve(context.Background(), p)
	assert.ErrorIs(t, err, mip.ErrEngine)

	free := mip.NewProblem("free")
	free.AddVar("z", mip.Continuous, math.Inf(-1), math.Inf(1))
	_, err = New().Solve(context.Background(), free)
	assert.ErrorIs(t, err, mip.ErrEngine)
}

func TestIntegralityTolerance(t *testing.T) {
	e := New(WithIntegralityTolerance(1e-3), WithRelativeIntegralityTolerance(1e-12))
	assert.Equal(t, 1e-3, e.intTol)
	assert.Equal(t, 1e-12, e.relTol)
	assert.Equal(t, EngineName, e.Name())
}

// fleetProblem builds an assignment problem: capacity[j][i] is the load slice
// i puts on type j, costs[j] the cost of one instance of type j.
func fleetProblem(capacity [][]float64, costs []float64) *mip.Problem {
	p := mip.NewProblem("fleet")
	numTypes, numSlices := len(capacity), len(capacity[0])
	x := make([][]int, numSlices)
	for i := range x {
		x[i] = make([]int, numTypes)
		for j := range x[i] {
			x[i][j] = p.AddBinary("x")
		}
	}
	y := make([]int, numTypes)
	objective := make([]mip.Term, numTypes)
	for j := range y {
		y[j] = p.AddInteger("y")
		objective[j] = mip.Term{Var: y[j], Coef: costs[j]}
	}
	p.Minimize(objective)
	for i := range x {
		assign := make([]mip.Term, numTypes)
		for j := range assign {
			assign[j] = mip.Term{Var: x[i][j], Coef: 1}
		}
		p.AddConstraint("assign", assign, mip.EQ, 1)
	}
	for j := range y {
		caps := make([]mip.Term, 0, numSlices+1)
		for i := range x {
			caps = append(caps, mip.Term{Var: x[i][j], Coef: capacity[j][i]})
		}
		p.AddConstraint("capacity", append(caps, mip.Term{Var: y[j], Coef: -1}), mip.LE, 0)
	}
	return p
}

func TestSolveLargeRates(t *testing.T) {
	// two buckets at half the rate each; A serves 3 or 7 req/s, B 7 or 3
	for _, rate := range []float64{1e3, 1e6, 1e7, 1e8} {
		t.Run(fmt.Sprintf("rate %g", rate), func(t *testing.T) {
			half := rate / 2
			p := fleetProblem([][]float64{
				{half / 3, half / 7},
				{half / 7, half / 3},
			}, []float64{1, 1})

			res, err := New().Solve(context.Background(), p)
			require.NoError(t, err)
			require.Equal(t, mip.Optimal, res.Status, res.String())
			assert.NoError(t, p.Feasible(res.Values, 1e-6))
			// each type takes the bucket it serves at 7 req/s
			want := 2 * math.Ceil(rate/14)
			assert.InDelta(t, want, res.Objective, 1e-6*want)
		})
	}
}

func TestSolveTinyLoad(t *testing.T) {
	for _, load := range []float64{1e-8, 1e-7, 5e-7, 1e-6} {
		t.Run(fmt.Sprintf("load %g", load), func(t *testing.T) {
			p := fleetProblem([][]float64{{load}}, []float64{1})

			res, err := New().Solve(context.Background(), p)
			require.NoError(t, err)
			require.Equal(t, mip.Optimal, res.Status)
			assert.Equal(t, []float64{1, 1}, res.Values)
			assert.Equal(t, 1.0, res.Objective)
		})
	}
}

func TestBranchesOnCountsFirst(t *testing.T) {
	p := mip.NewProblem("priority")
	p.AddBinary("x")
	p.AddInteger("y")
	e := New()

	k, frac := e.mostFractional(p, []float64{0.5, 2.1})
	assert.Equal(t, 1, k)
	assert.InDelta(t, 0.1, frac, 1e-12)

	k, _ = e.mostFractional(p, []float64{0.5, 2})
	assert.Equal(t, 0, k)

	k, _ = e.mostFractional(p, []float64{1, 3e6 + 1e-4})
	assert.Equal(t, -1, k, "within the relative tolerance of a large count")

	k, _ = e.mostFractional(p, []float64{1, 1e-7})
	assert.Equal(t, 1, k, "a tiny positive count is fractional")
}
