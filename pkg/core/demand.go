package core

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ExpandDemand scales a normalized workload distribution by the total request
// rate, giving the request rate (req/sec) of every bucket. The distribution is
// used as given, it is never renormalized.
func ExpandDemand(dist Grid, rate float64) (Grid, error) {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, &DomainError{Op: "expand-demand", Row: -1, Col: -1, Value: rate,
			Reason: "total request rate must be non-negative and finite"}
	}
	d, err := dist.dense()
	if err != nil {
		return nil, err
	}
	var hist mat.Dense
	hist.Scale(rate, d)
	return fromDense(&hist), nil
}

// CheckNormalized returns the sum of the distribution and whether it is
// within tol of 1.
func CheckNormalized(dist Grid, tol float64) (float64, bool) {
	sum := dist.Sum()
	return sum, math.Abs(sum-1) <= tol
}
