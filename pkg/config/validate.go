package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// ErrInvalidSpec is matched by every validation failure.
var ErrInvalidSpec = errors.New("invalid planner spec")

// ValidationError identifies the offending field of a planner spec.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSpec
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidationErrors flattens an error returned by Validate.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	for _, e := range multierr.Errors(err) {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	return out
}

// FieldIssue is the serializable form of a ValidationError.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// FieldIssues returns the violations of an error returned by Validate.
func FieldIssues(err error) []FieldIssue {
	var out []FieldIssue
	for _, ve := range ValidationErrors(err) {
		out = append(out, FieldIssue{Field: ve.Field, Reason: ve.Reason})
	}
	return out
}

// Validate checks a spec (after defaults are applied) and returns all
// violations combined, or nil.
func Validate(s *PlannerSpec) error {
	var err error

	rows, cols, gridErr := gridShape("workload_distribution", s.WorkloadDistribution)
	err = multierr.Append(err, gridErr)
	if gridErr == nil {
		err = multierr.Append(err, validateDistribution(s.WorkloadDistribution, s.StrictDistribution))
	}

	if math.IsNaN(s.TotalRequestRate) || math.IsInf(s.TotalRequestRate, 0) {
		err = multierr.Append(err, invalid("total_request_rate", "must be finite, got %v", s.TotalRequestRate))
	} else if s.TotalRequestRate < 0 {
		err = multierr.Append(err, invalid("total_request_rate", "must be non-negative, got %v", s.TotalRequestRate))
	}
	if s.SliceFactor < 1 {
		err = multierr.Append(err, invalid("slice_factor", "must be a positive integer, got %d", s.SliceFactor))
	}
	if s.TimeLimitSeconds < 0 {
		err = multierr.Append(err, invalid("time_limit_seconds", "must be non-negative, got %d", s.TimeLimitSeconds))
	}

	switch {
	case len(s.Accelerators) > 0 && len(s.GPUInfo) > 0:
		err = multierr.Append(err, invalid("accelerators", "gpu_info and accelerators are mutually exclusive"))
	case len(s.Accelerators) == 0 && len(s.GPUInfo) == 0:
		err = multierr.Append(err, invalid("accelerators", "at least one accelerator profile is required"))
	}

	seen := make(map[string]bool)
	for i, p := range s.Profiles() {
		field := fmt.Sprintf("accelerators[%d]", i)
		if p.Name != "" {
			field = fmt.Sprintf("accelerators[%s]", p.Name)
		}
		switch {
		case p.Name == "":
			err = multierr.Append(err, invalid(field+".name", "must not be empty"))
		case p.Name == CostKey:
			err = multierr.Append(err, invalid(field+".name", "%q is reserved for the total cost", CostKey))
		case seen[p.Name]:
			err = multierr.Append(err, invalid(field+".name", "duplicate accelerator name %q", p.Name))
		}
		seen[p.Name] = true

		if math.IsNaN(p.Cost) || math.IsInf(p.Cost, 0) || p.Cost <= 0 {
			err = multierr.Append(err, invalid(field+".cost", "must be a positive finite number, got %v", p.Cost))
		}
		err = multierr.Append(err, validateTputs(field+".tputs", p.Tputs, rows, cols, gridErr == nil))
	}
	return err
}

// gridShape checks that a grid is non-empty and rectangular.
func gridShape(field string, grid [][]float64) (rows, cols int, err error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return 0, 0, invalid(field, "must be a non-empty 2-D grid")
	}
	rows, cols = len(grid), len(grid[0])
	for i, row := range grid {
		if len(row) != cols {
			return 0, 0, invalid(fmt.Sprintf("%s[%d]", field, i), "row has %d columns, expected %d", len(row), cols)
		}
	}
	return rows, cols, nil
}

func validateDistribution(dist [][]float64, strict bool) error {
	var err error
	sum := 0.0
	for i, row := range dist {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				err = multierr.Append(err, invalid(fmt.Sprintf("workload_distribution[%d][%d]", i, j),
					"must be a non-negative finite fraction, got %v", v))
				continue
			}
			sum += v
		}
	}
	if err == nil && strict && math.Abs(sum-1) > NormalizationTolerance {
		err = invalid("workload_distribution", "fractions must sum to 1, got %v", sum)
	}
	return err
}

func validateTputs(field string, tputs [][]float64, rows, cols int, checkShape bool) error {
	r, c, err := gridShape(field, tputs)
	if err != nil {
		return err
	}
	if checkShape && (r != rows || c != cols) {
		return invalid(field, "shape %dx%d does not match workload_distribution shape %dx%d", r, c, rows, cols)
	}
	for i, row := range tputs {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				err = multierr.Append(err, invalid(fmt.Sprintf("%s[%d][%d]", field, i, j),
					"throughput must be positive and finite, got %v", v))
			}
		}
	}
	return err
}
