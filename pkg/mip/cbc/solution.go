package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

// ParseSolution reads a CBC solution file for a problem with n variables.
//
// The first line carries the status, e.g. "Optimal - objective value 10.1".
// Each further line is "index name value reducedCost", prefixed with "**"
// when the value is infeasible. Variables cbc does not list are zero.
func ParseSolution(r io.Reader, n int) (*mip.Result, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty solution file")
	}
	header := strings.TrimSpace(sc.Text())
	status, err := parseStatus(header)
	if err != nil {
		return nil, err
	}
	res := &mip.Result{Status: status}
	if i := strings.Index(header, "objective value"); i >= 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(header[i+len("objective value"):]), 64); err == nil {
			res.Objective = v
		}
	}
	if status != mip.Optimal {
		return res, nil
	}

	values := make([]float64, n)
	for line := 2; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("solution line %d: expected index, name and value, got %q", line, sc.Text())
		}
		k, ok := mip.ColumnIndex(fields[1])
		if !ok || k >= n {
			return nil, fmt.Errorf("solution line %d: unknown column %q", line, fields[1])
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("solution line %d: bad value %q: %w", line, fields[2], err)
		}
		values[k] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	res.Values = values
	return res, nil
}

func parseStatus(header string) (mip.Status, error) {
	h := strings.ToLower(header)
	switch {
	case strings.HasPrefix(h, "optimal"):
		return mip.Optimal, nil
	case strings.Contains(h, "infeasible"):
		return mip.Infeasible, nil
	case strings.Contains(h, "unbounded"):
		return mip.Unbounded, nil
	case strings.HasPrefix(h, "stopped"):
		return mip.NotSolved, nil
	default:
		return mip.NotSolved, fmt.Errorf("unrecognized solution status %q", header)
	}
}
