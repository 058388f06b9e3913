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

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/export"
	"github.com/llm-d-incubation/fleet-planner/pkg/manager"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

type solveOptions struct {
	configPath  string
	outputPath  string
	format      string
	sliceFactor int
	rate        float64
	compare     bool
	engine      engineFlags
}

func newSolveCmd() *cobra.Command {
	o := &solveOptions{format: string(export.FormatJSON)}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute the minimum-cost fleet for one workload",
		Example: `  # plan from a config file and print the fleet
  planner solve --config runner.yaml

  # compare against single-type fleets and write a table
  planner solve --config runner.yaml --compare --format table --output results/fleet.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "planner spec file (JSON or YAML)")
	cmd.Flags().StringVarP(&o.outputPath, "output", "o", "", "result file, stdout when empty")
	cmd.Flags().StringVarP(&o.format, "format", "f", o.format, fmt.Sprintf("output format %v", export.Formats))
	cmd.Flags().IntVar(&o.sliceFactor, "slice-factor", 0, "slices per bucket, overrides the config")
	cmd.Flags().Float64Var(&o.rate, "rate", 0, "total request rate in req/sec, overrides the config")
	cmd.Flags().BoolVar(&o.compare, "compare", false, "compare with homogeneous single-type fleets")
	o.engine.register(cmd)
	return cmd
}

func (o *solveOptions) run(cmd *cobra.Command) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return &inputError{err: err}
	}
	spec, err := loadSpec(o.configPath)
	if err != nil {
		return err
	}
	o.engine.apply(spec)
	if o.sliceFactor > 0 {
		spec.SliceFactor = o.sliceFactor
	}
	if cmd.Flags().Changed("rate") {
		spec.TotalRequestRate = o.rate
	}

	optimizer, err := solver.NewOptimizerFromSpec(spec, o.engine.options())
	if err != nil {
		return err
	}
	mgr := manager.NewManager(optimizer)
	sol, err := mgr.Plan(cmd.Context(), spec)
	if err != nil {
		return err
	}
	logger.Log.Infow("fleet planned", "fleet", sol.Fleet, "cost", sol.TotalCost,
		"engine", sol.Engine, "solution_time_msec", sol.SolutionTimeMsec)

	report := &export.Report{Solution: sol}
	if o.compare {
		if report.Baselines, err = manager.CompareHomogeneous(spec); err != nil {
			return err
		}
	}
	if o.outputPath == "" {
		return export.Write(cmd.OutOrStdout(), format, report)
	}
	return export.WriteFile(o.outputPath, format, report)
}
