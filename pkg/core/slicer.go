package core

import (
	"bytes"
	"fmt"
)

// Slices is the flattened demand: one rate per slice and, per accelerator
// type, one load per slice. Position i refers to the same bucket and
// sub-slice in every sequence.
type Slices struct {
	Types  []string             // accelerator types, in model column order
	Rates  []float64            // req/sec of each slice
	Loads  map[string][]float64 // accelerator type -> sec/req of each slice
	Factor int                  // slices per bucket
	Cols   int                  // columns of the bucket grid
}

// Slice flattens a request-rate histogram and the load grids of the given
// accelerator types in row-major order, splitting every bucket into factor
// slices of equal rate.
func Slice(hist Grid, loads map[string]Grid, types []string, factor int) (*Slices, error) {
	if factor < 1 {
		return nil, &DomainError{Op: "slice", Row: -1, Col: -1, Value: float64(factor),
			Reason: "slice factor must be at least 1"}
	}
	if _, err := hist.dense(); err != nil {
		return nil, err
	}
	rows, cols := hist.Shape()
	n := rows * cols * factor

	s := &Slices{
		Types:  append([]string(nil), types...),
		Rates:  make([]float64, 0, n),
		Loads:  make(map[string][]float64, len(types)),
		Factor: factor,
		Cols:   cols,
	}
	for _, row := range hist {
		for _, v := range row {
			for k := 0; k < factor; k++ {
				s.Rates = append(s.Rates, v/float64(factor))
			}
		}
	}
	for _, t := range types {
		grid, exists := loads[t]
		if !exists {
			return nil, fmt.Errorf("slice: no load grid for accelerator type %s", t)
		}
		if _, dup := s.Loads[t]; dup {
			return nil, fmt.Errorf("slice: duplicate accelerator type %s", t)
		}
		if !sameShape(hist, grid) {
			gr, gc := grid.Shape()
			return nil, fmt.Errorf("slice: load grid of %s has shape %dx%d, expected %dx%d",
				t, gr, gc, rows, cols)
		}
		seq := make([]float64, 0, n)
		for _, row := range grid {
			for _, v := range row {
				for k := 0; k < factor; k++ {
					seq = append(seq, v)
				}
			}
		}
		s.Loads[t] = seq
	}
	return s, nil
}

// Len returns the number of slices.
func (s *Slices) Len() int {
	return len(s.Rates)
}

// Bucket returns the grid cell and the sub-slice index of slice i.
func (s *Slices) Bucket(i int) (row, col, sub int) {
	cell := i / s.Factor
	return cell / s.Cols, cell % s.Cols, i % s.Factor
}

// AggregateLoad returns the load of the given slices on accelerator type t,
// the sum of rate times load.
func (s *Slices) AggregateLoad(t string, slices []int) float64 {
	loads := s.Loads[t]
	total := 0.0
	for _, i := range slices {
		total += s.Rates[i] * loads[i]
	}
	return total
}

func (s *Slices) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Slices: count=%d; factor=%d; rates=%v \n", s.Len(), s.Factor, s.Rates)
	for _, t := range s.Types {
		fmt.Fprintf(&b, "type=%s; loads=%v \n", t, s.Loads[t])
	}
	return b.String()
}
