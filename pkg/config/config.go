package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ParseSpec decodes a planner spec from JSON or YAML, rejecting unknown fields.
func ParseSpec(data []byte) (*PlannerSpec, error) {
	var s PlannerSpec
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode planner spec: %w", err)
	}
	return &s, nil
}

// LoadSpec reads a planner spec from the file at path.
func LoadSpec(path string) (*PlannerSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read planner spec %s: %w", path, err)
	}
	s, err := ParseSpec(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// GetEnvOrDefault returns the value of the environment variable name, or def if unset.
func GetEnvOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
