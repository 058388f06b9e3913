/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/fleet-planner/pkg/export"
	"github.com/llm-d-incubation/fleet-planner/pkg/manager"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

type sweepOptions struct {
	configPath string
	format     string
	rates      []float64
	engine     engineFlags
}

func newSweepCmd() *cobra.Command {
	o := &sweepOptions{format: string(export.FormatTable)}
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Plan the fleet at several total request rates",
		Example: `  planner sweep --config runner.yaml --rates 4,8,16,32`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "planner spec file (JSON or YAML)")
	cmd.Flags().StringVarP(&o.format, "format", "f", o.format, fmt.Sprintf("output format %v", export.Formats))
	cmd.Flags().Float64SliceVar(&o.rates, "rates", nil, "total request rates in req/sec")
	o.engine.register(cmd)
	return cmd
}

func (o *sweepOptions) run(cmd *cobra.Command) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return &inputError{err: err}
	}
	if len(o.rates) == 0 {
		return &inputError{err: fmt.Errorf("--rates is required")}
	}
	spec, err := loadSpec(o.configPath)
	if err != nil {
		return err
	}
	o.engine.apply(spec)

	optimizer, err := solver.NewOptimizerFromSpec(spec, o.engine.options())
	if err != nil {
		return err
	}
	scenarios, err := manager.NewManager(optimizer).Sweep(cmd.Context(), spec, o.rates)
	if err != nil {
		return err
	}
	return export.WriteSweep(cmd.OutOrStdout(), format, scenarios)
}
