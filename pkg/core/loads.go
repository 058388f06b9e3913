package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TputsToLoads converts profiled maximum throughputs (req/sec) into loads
// (sec/req), the reciprocal of each cell. The input grid is not modified.
func TputsToLoads(tputs Grid) (Grid, error) {
	return reciprocal("tputs-to-loads", tputs)
}

// LoadsToTputs is the inverse of TputsToLoads.
func LoadsToTputs(loads Grid) (Grid, error) {
	return reciprocal("loads-to-tputs", loads)
}

func reciprocal(op string, g Grid) (Grid, error) {
	d, err := g.dense()
	if err != nil {
		return nil, err
	}
	for i, row := range g {
		for j, v := range row {
			if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &DomainError{Op: op, Row: i, Col: j, Value: v,
					Reason: "reciprocal requires a positive finite value"}
			}
		}
	}
	d.Apply(func(_, _ int, v float64) float64 { return 1 / v }, d)
	return fromDense(d), nil
}

// TotalLoad returns the aggregate load of a request-rate histogram on one
// accelerator type: the sum over buckets of rate times load.
func TotalLoad(hist, loads Grid) (float64, error) {
	h, err := hist.dense()
	if err != nil {
		return 0, err
	}
	if !sameShape(hist, loads) {
		return 0, fmt.Errorf("total load: load grid does not match the histogram shape")
	}
	l, err := loads.dense()
	if err != nil {
		return 0, err
	}
	var prod mat.Dense
	prod.MulElem(h, l)
	return mat.Sum(&prod), nil
}
