package mip

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ColumnName is the name under which variable k is written in LP files.
// Generated names keep the file independent of caller naming.
func ColumnName(k int) string {
	return "v" + strconv.Itoa(k)
}

// ColumnIndex parses a name produced by ColumnName.
func ColumnIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "v") {
		return 0, false
	}
	k, err := strconv.Atoi(name[1:])
	if err != nil || k < 0 {
		return 0, false
	}
	return k, true
}

// WriteLP writes the problem in CPLEX LP format.
func WriteLP(w io.Writer, p *Problem) error {
	if err := p.Check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\* %s *\\\n", p.Name)
	bw.WriteString("Minimize\n obj:")
	writeExpr(bw, p.Objective)
	bw.WriteString("\n")

	bw.WriteString("Subject To\n")
	for i, c := range p.Constraints {
		fmt.Fprintf(bw, " c%d:", i)
		writeExpr(bw, c.Terms)
		fmt.Fprintf(bw, " %s %s\n", c.Sense, formatNumber(c.RHS))
	}

	bw.WriteString("Bounds\n")
	for k, v := range p.Vars {
		name := ColumnName(k)
		switch {
		case math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1):
			fmt.Fprintf(bw, " %s free\n", name)
		case math.IsInf(v.Upper, 1):
			fmt.Fprintf(bw, " %s >= %s\n", name, formatNumber(v.Lower))
		case math.IsInf(v.Lower, -1):
			fmt.Fprintf(bw, " -inf <= %s <= %s\n", name, formatNumber(v.Upper))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(v.Lower), name, formatNumber(v.Upper))
		}
	}

	writeSection(bw, "Generals", p, Integer)
	writeSection(bw, "Binaries", p, Binary)
	bw.WriteString("End\n")
	return bw.Flush()
}

// writeExpr writes a linear expression; an empty one is written as 0 v0 so
// that every section stays parsable.
func writeExpr(w *bufio.Writer, terms []Term) {
	wrote := false
	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		fmt.Fprintf(w, " %s %s %s", sign, formatNumber(coef), ColumnName(t.Var))
		wrote = true
	}
	if !wrote {
		fmt.Fprintf(w, " 0 %s", ColumnName(0))
	}
}

func writeSection(w *bufio.Writer, title string, p *Problem, kind VarKind) {
	var names []string
	for k, v := range p.Vars {
		if v.Kind == kind {
			names = append(names, ColumnName(k))
		}
	}
	if len(names) == 0 {
		return
	}
	w.WriteString(title + "\n")
	for _, name := range names {
		w.WriteString(" " + name + "\n")
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 15, 64)
}
