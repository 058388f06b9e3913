package mip

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// knapsack: min 2a + 3b s.t. a + b >= 1.5, a binary, b integer
func smallProblem() *Problem {
	p := NewProblem("small")
	a := p.AddBinary("a")
	b := p.AddInteger("b")
	p.Minimize([]Term{{Var: a, Coef: 2}, {Var: b, Coef: 3}})
	p.AddConstraint("cover", []Term{{Var: a, Coef: 1}, {Var: b, Coef: 1}}, GE, 1.5)
	return p
}

func TestAddVar(t *testing.T) {
	p := NewProblem("vars")
	x := p.AddVar("x", Binary, -3, 7)
	y := p.AddInteger("y")
	z := p.AddVar("z", Continuous, -1, 1)

	assert.Equal(t, 0, x)
	assert.Equal(t, 1, y)
	assert.Equal(t, 2, z)
	assert.Equal(t, 3, p.NumVars())
	assert.Equal(t, 0.0, p.Vars[x].Lower)
	assert.Equal(t, 1.0, p.Vars[x].Upper)
	assert.True(t, math.IsInf(p.Vars[y].Upper, 1))
	assert.True(t, p.Vars[x].IsInteger())
	assert.True(t, p.Vars[y].IsInteger())
	assert.False(t, p.Vars[z].IsInteger())
}

func TestCheck(t *testing.T) {
	assert.NoError(t, smallProblem().Check())

	empty := NewProblem("empty")
	assert.Error(t, empty.Check())

	bad := smallProblem()
	bad.AddConstraint("dangling", []Term{{Var: 7, Coef: 1}}, LE, 1)
	assert.Error(t, bad.Check())

	nan := smallProblem()
	nan.Objective = append(nan.Objective, Term{Var: 0, Coef: math.NaN()})
	assert.Error(t, nan.Check())

	bounds := smallProblem()
	bounds.Vars[1].Lower = 5
	bounds.Vars[1].Upper = 2
	assert.Error(t, bounds.Check())
}

func TestFeasible(t *testing.T) {
	p := smallProblem()
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{name: "feasible", values: []float64{1, 1}},
		{name: "feasible within tolerance", values: []float64{1, 1 + 1e-9}},
		{name: "constraint violated", values: []float64{1, 0}, wantErr: true},
		{name: "not integral", values: []float64{0, 1.5}, wantErr: true},
		{name: "out of bounds", values: []float64{2, 0}, wantErr: true},
		{name: "wrong length", values: []float64{1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Feasible(tt.values, 1e-6)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeasibleRelativeToRow(t *testing.T) {
	p := NewProblem("capacity")
	x := p.AddBinary("x")
	y := p.AddInteger("y")
	p.AddConstraint("cap", []Term{{Var: x, Coef: 1e6 + 0.5}, {Var: y, Coef: -1}}, LE, 0)

	// half an instance over a million stays within a relative 1e-6
	assert.NoError(t, p.Feasible([]float64{1, 1e6}, 1e-6))
	assert.Error(t, p.Feasible([]float64{1, 1e6}, 1e-9))
	assert.Error(t, p.Feasible([]float64{1, 999990}, 1e-6))
}

func TestEval(t *testing.T) {
	p := smallProblem()
	assert.Equal(t, 5.0, Eval(p.Objective, []float64{1, 1}))
	assert.Equal(t, 0.0, Eval(nil, []float64{1, 1}))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "Binary", Binary.String())
	assert.Equal(t, "Unknown", VarKind(42).String())
	assert.Equal(t, "<=", LE.String())
	assert.Equal(t, ">=", GE.String())
	assert.Equal(t, "=", EQ.String())
	assert.Equal(t, "Optimal", Optimal.String())
	assert.Equal(t, "NotSolved", NotSolved.String())
	assert.Equal(t, "Undefined", Status(42).String())
}

func TestEngineError(t *testing.T) {
	cause := errors.New("binary not found")
	err := &EngineError{Engine: "cbc", Err: cause}
	assert.ErrorIs(t, err, ErrEngine)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cbc engine: binary not found", err.Error())

	assert.ErrorIs(t, Failure("bnb", "node %d: %w", 3, cause), cause)
	assert.ErrorIs(t, Failure("bnb", "oops"), ErrEngine)
}

func TestColumnName(t *testing.T) {
	for _, k := range []int{0, 1, 42, 12345} {
		got, ok := ColumnIndex(ColumnName(k))
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	for _, name := range []string{"", "x1", "v", "v-1", "vx"} {
		_, ok := ColumnIndex(name)
		assert.False(t, ok, name)
	}
}

func TestWriteLP(t *testing.T) {
	p := smallProblem()
	p.AddVar("w", Continuous, -2, 4)
	p.AddConstraint("empty", nil, LE, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteLP(&buf, p))
	want := `\* small *\
Minimize
 obj: + 2 v0 + 3 v1
Subject To
 c0: + 1 v0 + 1 v1 >= 1.5
 c1: 0 v0 <= 3
Bounds
 0 <= v0 <= 1
 v1 >= 0
 -2 <= v2 <= 4
Generals
 v1
Binaries
 v0
End
`
	assert.Equal(t, want, buf.String())
}

func TestWriteLPRejectsMalformedProblem(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteLP(&buf, NewProblem("empty")))
}
