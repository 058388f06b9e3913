package config

import (
	"bytes"
	"fmt"
	"slices"
)

// Data related to a planning run
type PlannerSpec struct {
	WorkloadDistribution [][]float64                `json:"workload_distribution"`  // fractions per request-size bucket
	TotalRequestRate     float64                    `json:"total_request_rate"`     // req/sec
	SliceFactor          int                        `json:"slice_factor,omitempty"` // number of slices per bucket
	GPUInfo              map[string]AcceleratorInfo `json:"gpu_info,omitempty"`     // accelerator name -> profile (legacy format)
	Accelerators         []AcceleratorProfile       `json:"accelerators,omitempty"` // ordered accelerator profiles
	Engine               string                     `json:"engine,omitempty"`       // solving engine name
	TimeLimitSeconds     int                        `json:"time_limit_seconds,omitempty"`
	StrictDistribution   bool                       `json:"strict_distribution,omitempty"` // reject distributions not summing to 1
}

// Profile of an accelerator type keyed by name in the legacy format
type AcceleratorInfo struct {
	Cost  float64     `json:"cost"`  // currency per instance per unit time
	Tputs [][]float64 `json:"tputs"` // max throughput (req/sec) per request-size bucket
}

// Profile of a named accelerator type
type AcceleratorProfile struct {
	Name  string      `json:"name"`
	Cost  float64     `json:"cost"`
	Tputs [][]float64 `json:"tputs"`
}

// WithDefaults returns a copy of the spec with unset optional fields filled in.
// Grids are shared with the receiver, callers must treat them as read-only.
func (s PlannerSpec) WithDefaults() PlannerSpec {
	if s.SliceFactor == 0 {
		s.SliceFactor = DefaultSliceFactor
	}
	if s.Engine == "" {
		s.Engine = DefaultEngine
	}
	return s
}

// Profiles returns the accelerator profiles in a deterministic order: list
// order for the list format, name order for the legacy map format.
func (s *PlannerSpec) Profiles() []AcceleratorProfile {
	if len(s.Accelerators) > 0 {
		return slices.Clone(s.Accelerators)
	}
	names := make([]string, 0, len(s.GPUInfo))
	for name := range s.GPUInfo {
		names = append(names, name)
	}
	slices.Sort(names)
	profiles := make([]AcceleratorProfile, len(names))
	for i, name := range names {
		info := s.GPUInfo[name]
		profiles[i] = AcceleratorProfile{
			Name:  name,
			Cost:  info.Cost,
			Tputs: info.Tputs,
		}
	}
	return profiles
}

func (s *PlannerSpec) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "PlannerSpec: rate=%v; sliceFactor=%d; engine=%s; timeLimit=%ds; distribution=%v \n",
		s.TotalRequestRate, s.SliceFactor, s.Engine, s.TimeLimitSeconds, s.WorkloadDistribution)
	for _, p := range s.Profiles() {
		fmt.Fprintf(&b, "accelerator=%s; cost=%v; tputs=%v \n", p.Name, p.Cost, p.Tputs)
	}
	return b.String()
}
