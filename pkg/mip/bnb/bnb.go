// Package bnb is an in-process mixed-integer engine: depth-first
// branch-and-bound over LP relaxations solved with gonum's simplex. It needs
// no solver binary and suits small models.
package bnb

import (
	"context"
	"math"
	"time"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

const EngineName = "bnb"

// tolerance of the simplex reduced costs
const simplexTolerance = 1e-10

// default distance from an integer below which a binary value counts as integral
const DefaultIntegralityTolerance = 1e-6

// default distance, relative to the value, below which a general integer
// counts as integral; small positive counts must not round down to zero
const DefaultRelativeIntegralityTolerance = 1e-9

// Engine is a branch-and-bound solver
type Engine struct {
	nodeLimit int
	intTol    float64
	relTol    float64
}

type Option func(*Engine)

// WithNodeLimit bounds the number of explored nodes; reaching it ends the
// search with status NotSolved.
func WithNodeLimit(n int) Option {
	return func(e *Engine) {
		e.nodeLimit = n
	}
}

// WithIntegralityTolerance sets the distance from an integer below which a
// relaxation value counts as integral.
func WithIntegralityTolerance(tol float64) Option {
	return func(e *Engine) {
		e.intTol = tol
	}
}

// WithRelativeIntegralityTolerance sets the tolerance of general integer
// variables, relative to their magnitude.
func WithRelativeIntegralityTolerance(tol float64) Option {
	return func(e *Engine) {
		e.relTol = tol
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		nodeLimit: config.DefaultNodeLimit,
		intTol:    DefaultIntegralityTolerance,
		relTol:    DefaultRelativeIntegralityTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string {
	return EngineName
}

// node of the search tree, holding the variable bounds of a subproblem
type node struct {
	lower []float64
	upper []float64
	depth int
}

// Solve minimizes p. Cancellation of ctx or reaching the node limit yields
// status NotSolved.
func (e *Engine) Solve(ctx context.Context, p *mip.Problem) (*mip.Result, error) {
	if err := p.Check(); err != nil {
		return nil, &mip.EngineError{Engine: EngineName, Err: err}
	}
	startTime := time.Now()

	root := node{
		lower: make([]float64, p.NumVars()),
		upper: make([]float64, p.NumVars()),
	}
	for k, v := range p.Vars {
		if math.IsInf(v.Lower, -1) {
			return nil, mip.Failure(EngineName, "variable %s has no finite lower bound", v.Name)
		}
		root.lower[k], root.upper[k] = v.Lower, v.Upper
		if v.IsInteger() {
			root.lower[k] = math.Ceil(v.Lower - e.intTol)
			root.upper[k] = math.Floor(v.Upper + e.intTol)
			if root.lower[k] > root.upper[k] {
				return &mip.Result{Status: mip.Infeasible}, nil
			}
		}
	}

	var incumbent []float64
	best := math.Inf(1)
	stack := []node{root}
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			logger.Log.Warnw("branch-and-bound interrupted", "problem", p.Name, "nodes", nodes, "error", err)
			return &mip.Result{Status: mip.NotSolved, Nodes: nodes}, nil
		}
		if nodes >= e.nodeLimit {
			logger.Log.Warnw("branch-and-bound node limit reached", "problem", p.Name, "nodes", nodes)
			return &mip.Result{Status: mip.NotSolved, Nodes: nodes}, nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		status, x, err := relax(p, nd.lower, nd.upper, e.intTol)
		if err != nil {
			return nil, &mip.EngineError{Engine: EngineName, Err: err}
		}
		switch status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			// children only tighten bounds, so the root relaxation is unbounded too
			return &mip.Result{Status: mip.Unbounded, Nodes: nodes}, nil
		}

		obj := mip.Eval(p.Objective, x)
		if obj >= best-e.relTol*math.Max(1, math.Abs(best)) {
			continue
		}

		branch, frac := e.mostFractional(p, x)
		if branch < 0 {
			for k, v := range p.Vars {
				if v.IsInteger() {
					x[k] = math.Round(x[k])
				}
			}
			incumbent = x
			best = mip.Eval(p.Objective, x)
			logger.Log.Debugw("branch-and-bound incumbent", "problem", p.Name, "objective", best, "nodes", nodes,
				"depth", nd.depth)
			continue
		}

		down := nd.child()
		down.upper[branch] = math.Floor(x[branch])
		up := nd.child()
		up.lower[branch] = math.Ceil(x[branch])
		// the side nearer to the relaxation value is explored first
		if frac >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	elapsed := time.Since(startTime)
	if incumbent == nil {
		logger.Log.Debugw("branch-and-bound found no integer solution", "problem", p.Name, "nodes", nodes,
			"elapsed", elapsed)
		return &mip.Result{Status: mip.Infeasible, Nodes: nodes}, nil
	}
	logger.Log.Debugw("branch-and-bound done", "problem", p.Name, "objective", best, "nodes", nodes,
		"elapsed", elapsed)
	return &mip.Result{
		Status:    mip.Optimal,
		Objective: best,
		Values:    incumbent,
		Nodes:     nodes,
	}, nil
}

// mostFractional returns the integer variable to branch on, with its
// fractional part, or -1 when all are integral. General integers go first:
// bounding a count moves the relaxation bound more than fixing one binary.
func (e *Engine) mostFractional(p *mip.Problem, x []float64) (int, float64) {
	for _, kind := range []mip.VarKind{mip.Integer, mip.Binary} {
		branch, frac, bestDist := -1, 0.0, 0.0
		for k, v := range p.Vars {
			if v.Kind != kind {
				continue
			}
			f := x[k] - math.Floor(x[k])
			dist := math.Min(f, 1-f)
			if dist > e.tolerance(kind, x[k]) && dist > bestDist {
				branch, frac, bestDist = k, f, dist
			}
		}
		if branch >= 0 {
			return branch, frac
		}
	}
	return -1, 0
}

// tolerance returns the distance from an integer below which value counts as integral.
func (e *Engine) tolerance(kind mip.VarKind, value float64) float64 {
	if kind == mip.Binary {
		return e.intTol
	}
	return e.relTol * math.Max(1, math.Abs(value))
}

func (nd *node) child() node {
	return node{
		lower: append([]float64(nil), nd.lower...),
		upper: append([]float64(nil), nd.upper...),
		depth: nd.depth + 1,
	}
}
