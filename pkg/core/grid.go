package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Grid is a 2-D matrix over request-size buckets, indexed [row][column].
type Grid [][]float64

// Shape returns the number of rows and columns of a rectangular grid.
func (g Grid) Shape() (rows, cols int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// Sum returns the sum of all cells.
func (g Grid) Sum() float64 {
	d, err := g.dense()
	if err != nil {
		return 0
	}
	return mat.Sum(d)
}

// dense copies a rectangular grid into a gonum matrix.
func (g Grid) dense() (*mat.Dense, error) {
	rows, cols := g.Shape()
	if rows == 0 || cols == 0 {
		return nil, &DomainError{Op: "grid", Row: -1, Col: -1, Reason: "grid is empty"}
	}
	d := mat.NewDense(rows, cols, nil)
	for i, row := range g {
		if len(row) != cols {
			return nil, &DomainError{Op: "grid", Row: i, Col: -1,
				Reason: fmt.Sprintf("row has %d columns, expected %d", len(row), cols)}
		}
		d.SetRow(i, row)
	}
	return d, nil
}

func fromDense(d *mat.Dense) Grid {
	rows, _ := d.Dims()
	g := make(Grid, rows)
	for i := range g {
		g[i] = mat.Row(nil, i, d)
	}
	return g
}

func sameShape(a, b Grid) bool {
	ar, ac := a.Shape()
	br, bc := b.Shape()
	if ar != br || ac != bc {
		return false
	}
	for i := range b {
		if len(b[i]) != bc {
			return false
		}
	}
	return true
}
