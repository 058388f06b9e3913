package mip

import (
	"bytes"
	"fmt"
)

// Solution status reported by an engine
type Status int

const (
	NotSolved  Status = iota // stopped (time or node limit, cancellation) without proving optimality
	Optimal                  // optimal solution found
	Infeasible               // no feasible solution exists
	Unbounded                // objective unbounded below
)

func (s Status) String() string {
	switch s {
	case NotSolved:
		return "NotSolved"
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	default:
		return "Undefined"
	}
}

// Result of solving a problem. Values holds one entry per variable when
// Status is Optimal.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int // explored nodes, for engines that report them
}

func (r *Result) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "status=%s, objective=%v, nodes=%d", r.Status, r.Objective, r.Nodes)
	return b.String()
}
