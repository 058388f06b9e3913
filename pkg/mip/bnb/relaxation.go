package bnb

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

// outcome of an LP relaxation
type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

// equality row of the standard form, before the sign of the right-hand side is fixed
type row struct {
	coefs map[int]float64
	slack float64 // coefficient of the row slack, 0 for equalities
	rhs   float64
}

// relax solves the LP relaxation of p with variable bounds [lower, upper].
//
// Variables are shifted to x = lower + x' with x' >= 0 and fixed variables
// (lower == upper) are substituted out. Every remaining constraint becomes an
// equality row, with a slack column for inequalities, and every finite upper
// bound becomes a row x' + s = upper - lower. Constraint rows and columns are
// equilibrated so that coefficients of very different magnitude, such as
// capacity rows at high request rates, keep the basis well conditioned. Rows
// are negated where needed so that the right-hand side is non-negative, which
// is the standard form gonum's Simplex expects.
func relax(p *mip.Problem, lower, upper []float64, tol float64) (lpStatus, []float64, error) {
	n := len(p.Vars)

	// map free variables to columns
	col := make([]int, n)
	cols := 0
	for k := 0; k < n; k++ {
		if upper[k]-lower[k] <= tol {
			col[k] = -1
			continue
		}
		col[k] = cols
		cols++
	}

	var rows []row
	used := make([]bool, cols)

	for _, c := range p.Constraints {
		r := row{coefs: make(map[int]float64), rhs: c.RHS}
		for _, t := range c.Terms {
			r.rhs -= t.Coef * lower[t.Var]
			if j := col[t.Var]; j >= 0 && t.Coef != 0 {
				r.coefs[j] += t.Coef
			}
		}
		for j, v := range r.coefs {
			if v == 0 {
				delete(r.coefs, j)
			}
		}
		if len(r.coefs) == 0 {
			// constant constraint, decided without the LP
			if !constantHolds(c.Sense, r.rhs, tol) {
				return lpInfeasible, nil, nil
			}
			continue
		}
		switch c.Sense {
		case mip.LE:
			r.slack = 1
		case mip.GE:
			r.slack = -1
		}
		for j := range r.coefs {
			used[j] = true
		}
		rows = append(rows, r)
	}

	// rows are scaled to unit max-abs coefficient, then columns likewise; the
	// simplex works on z = x' / colScale
	colScale := make([]float64, cols)
	for i := range rows {
		scaleRow(&rows[i])
	}
	for _, r := range rows {
		for j, v := range r.coefs {
			colScale[j] = math.Max(colScale[j], math.Abs(v))
		}
	}
	for j, mx := range colScale {
		if mx > 0 {
			colScale[j] = 1 / mx
		} else {
			colScale[j] = 1
		}
	}
	for _, r := range rows {
		for j := range r.coefs {
			r.coefs[j] *= colScale[j]
		}
	}

	for k := 0; k < n; k++ {
		j := col[k]
		if j < 0 || math.IsInf(upper[k], 1) {
			continue
		}
		rows = append(rows, row{coefs: map[int]float64{j: 1}, slack: 1, rhs: (upper[k] - lower[k]) / colScale[j]})
		used[j] = true
	}

	cost := make([]float64, cols)
	for _, t := range p.Objective {
		if j := col[t.Var]; j >= 0 {
			cost[j] += t.Coef
		}
	}
	costMax := 0.0
	for j := range cost {
		cost[j] *= colScale[j]
		costMax = math.Max(costMax, math.Abs(cost[j]))
	}
	if costMax > 0 {
		for j := range cost {
			cost[j] /= costMax
		}
	}

	// columns absent from every row stay at their lower bound, unless that lowers the cost without limit
	colIndex := make([]int, cols)
	m := 0
	for j := 0; j < cols; j++ {
		if !used[j] {
			if cost[j] < 0 {
				return lpUnbounded, nil, nil
			}
			colIndex[j] = -1
			continue
		}
		colIndex[j] = m
		m++
	}

	xp := make([]float64, cols) // shifted values of free variables
	if len(rows) > 0 {
		numSlacks := 0
		for _, r := range rows {
			if r.slack != 0 {
				numSlacks++
			}
		}
		width := m + numSlacks
		if width < len(rows) {
			return 0, nil, fmt.Errorf("relaxation has %d rows but only %d columns", len(rows), width)
		}
		A := mat.NewDense(len(rows), width, nil)
		b := make([]float64, len(rows))
		c := make([]float64, width)
		for j := 0; j < cols; j++ {
			if colIndex[j] >= 0 {
				c[colIndex[j]] = cost[j]
			}
		}
		s := m
		for i, r := range rows {
			sign := 1.0
			if r.rhs < 0 {
				sign = -1
			}
			for j, v := range r.coefs {
				A.Set(i, colIndex[j], sign*v)
			}
			if r.slack != 0 {
				A.Set(i, s, sign*r.slack)
				s++
			}
			b[i] = sign * r.rhs
		}

		_, x, err := simplex(c, A, b)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return lpInfeasible, nil, nil
		case errors.Is(err, lp.ErrUnbounded):
			return lpUnbounded, nil, nil
		case err != nil:
			return 0, nil, err
		}
		for j := 0; j < cols; j++ {
			if colIndex[j] >= 0 {
				xp[j] = colScale[j] * x[colIndex[j]]
			}
		}
	}

	values := make([]float64, n)
	for k := 0; k < n; k++ {
		values[k] = lower[k]
		if j := col[k]; j >= 0 {
			values[k] += xp[j]
		}
	}
	return lpOptimal, values, nil
}

// scaleRow divides the coefficients and right-hand side of r by its largest
// coefficient magnitude. The slack keeps coefficient one.
func scaleRow(r *row) {
	mx := 0.0
	for _, v := range r.coefs {
		mx = math.Max(mx, math.Abs(v))
	}
	if mx == 0 {
		return
	}
	for j := range r.coefs {
		r.coefs[j] /= mx
	}
	r.rhs /= mx
}

// simplex runs gonum's Simplex, turning its panics on malformed input into errors.
func simplex(c []float64, A *mat.Dense, b []float64) (f float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	return lp.Simplex(c, A, b, simplexTolerance, nil)
}

func constantHolds(sense mip.Sense, rhs, tol float64) bool {
	// the constraint reads 0 <sense> rhs
	switch sense {
	case mip.LE:
		return rhs >= -tol
	case mip.GE:
		return rhs <= tol
	default:
		return math.Abs(rhs) <= tol
	}
}
