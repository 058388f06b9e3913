package mip

import (
	"bytes"
	"fmt"
	"math"
)

// Kind of a decision variable
type VarKind int

const (
	Continuous VarKind = iota // real valued
	Integer                   // integer valued
	Binary                    // integer valued in [0,1]
)

func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "Continuous"
	case Integer:
		return "Integer"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Sense of a linear constraint
type Sense int

const (
	LE Sense = iota // <=
	EQ              // ==
	GE              // >=
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case EQ:
		return "="
	case GE:
		return ">="
	default:
		return "?"
	}
}

// Decision variable with bounds; Upper may be +Inf
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// IsInteger reports whether the variable must take an integral value.
func (v *Var) IsInteger() bool {
	return v.Kind == Integer || v.Kind == Binary
}

// Coefficient of a variable (by index) in a linear expression
type Term struct {
	Var  int
	Coef float64
}

// Linear constraint: sum of terms <sense> RHS
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a linear minimization problem over integer, binary and
// continuous variables.
type Problem struct {
	Name        string
	Vars        []Var
	Objective   []Term
	Constraints []Constraint
}

func NewProblem(name string) *Problem {
	return &Problem{Name: name}
}

// AddVar adds a variable and returns its index.
func (p *Problem) AddVar(name string, kind VarKind, lower, upper float64) int {
	if kind == Binary {
		lower, upper = 0, 1
	}
	p.Vars = append(p.Vars, Var{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return len(p.Vars) - 1
}

// AddBinary adds a 0/1 variable.
func (p *Problem) AddBinary(name string) int {
	return p.AddVar(name, Binary, 0, 1)
}

// AddInteger adds a non-negative unbounded integer variable.
func (p *Problem) AddInteger(name string) int {
	return p.AddVar(name, Integer, 0, math.Inf(1))
}

// Minimize sets the objective.
func (p *Problem) Minimize(terms []Term) {
	p.Objective = terms
}

// AddConstraint appends a constraint and returns its index.
func (p *Problem) AddConstraint(name string, terms []Term, sense Sense, rhs float64) int {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
	return len(p.Constraints) - 1
}

// NumVars returns the number of variables.
func (p *Problem) NumVars() int {
	return len(p.Vars)
}

// Check verifies that the problem is well formed.
func (p *Problem) Check() error {
	if len(p.Vars) == 0 {
		return fmt.Errorf("problem %s has no variables", p.Name)
	}
	for k, v := range p.Vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || math.IsInf(v.Lower, 1) || math.IsInf(v.Upper, -1) {
			return fmt.Errorf("variable %s has invalid bounds [%v,%v]", v.Name, v.Lower, v.Upper)
		}
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %d (%s) has lower bound %v above upper bound %v", k, v.Name, v.Lower, v.Upper)
		}
	}
	if err := p.checkTerms("objective", p.Objective); err != nil {
		return err
	}
	for _, c := range p.Constraints {
		if err := p.checkTerms("constraint "+c.Name, c.Terms); err != nil {
			return err
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %s has non-finite right-hand side %v", c.Name, c.RHS)
		}
	}
	return nil
}

func (p *Problem) checkTerms(where string, terms []Term) error {
	for _, t := range terms {
		if t.Var < 0 || t.Var >= len(p.Vars) {
			return fmt.Errorf("%s refers to unknown variable %d", where, t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("%s has non-finite coefficient %v for %s", where, t.Coef, p.Vars[t.Var].Name)
		}
	}
	return nil
}

// Eval returns the value of a linear expression at the given point.
func Eval(terms []Term, values []float64) float64 {
	sum := 0.0
	for _, t := range terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Feasible verifies bounds, integrality and constraints at the given point,
// each within tol. Constraint tolerances are relative to the largest of the
// right-hand side and the row terms at that point, and at least tol.
func (p *Problem) Feasible(values []float64, tol float64) error {
	if len(values) != len(p.Vars) {
		return fmt.Errorf("got %d values for %d variables", len(values), len(p.Vars))
	}
	for k, v := range p.Vars {
		x := values[k]
		if x < v.Lower-tol || x > v.Upper+tol {
			return fmt.Errorf("variable %s=%v outside bounds [%v,%v]", v.Name, x, v.Lower, v.Upper)
		}
		if v.IsInteger() && math.Abs(x-math.Round(x)) > tol {
			return fmt.Errorf("variable %s=%v is not integral", v.Name, x)
		}
	}
	for _, c := range p.Constraints {
		lhs := Eval(c.Terms, values)
		scale := math.Max(1, math.Abs(c.RHS))
		for _, t := range c.Terms {
			scale = math.Max(scale, math.Abs(t.Coef*values[t.Var]))
		}
		rowTol := tol * scale
		var ok bool
		switch c.Sense {
		case LE:
			ok = lhs <= c.RHS+rowTol
		case GE:
			ok = lhs >= c.RHS-rowTol
		case EQ:
			ok = math.Abs(lhs-c.RHS) <= rowTol
		}
		if !ok {
			return fmt.Errorf("constraint %s violated: %v %v %v", c.Name, lhs, c.Sense, c.RHS)
		}
	}
	return nil
}

func (p *Problem) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Problem: name=%s; vars=%d; constraints=%d \n", p.Name, len(p.Vars), len(p.Constraints))
	return b.String()
}
