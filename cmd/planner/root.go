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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/core"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

// process exit codes
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitInvalidInput   = 2
	ExitNoFeasiblePlan = 3
	ExitEngineFailure  = 4
)

// inputError marks failures to read or decode the planner spec
type inputError struct {
	err error
}

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

// ExitCode returns the process exit code for the error of a command.
func ExitCode(err error) int {
	var ie *inputError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ie), errors.Is(err, config.ErrInvalidSpec), errors.Is(err, core.ErrDomain):
		return ExitInvalidInput
	case errors.Is(err, solver.ErrNoFeasibleAllocation):
		return ExitNoFeasiblePlan
	case errors.Is(err, mip.ErrEngine):
		return ExitEngineFailure
	default:
		return ExitFailure
	}
}

// engine flags shared by the planning commands
type engineFlags struct {
	engine    string
	cbcPath   string
	timeLimit int
	nodeLimit int
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.engine, "engine", "", fmt.Sprintf("solving engine %v, overrides the config", solver.EngineNames))
	cmd.Flags().StringVar(&f.cbcPath, "cbc-path", "", "path of the cbc executable (default $"+config.CBCPathEnvName+" or cbc)")
	cmd.Flags().IntVar(&f.timeLimit, "time-limit", 0, "solve time limit in seconds, overrides the config")
	cmd.Flags().IntVar(&f.nodeLimit, "node-limit", config.DefaultNodeLimit, "node limit of the bnb engine")
}

// apply overrides spec fields with the flags that were set.
func (f *engineFlags) apply(spec *config.PlannerSpec) {
	if f.engine != "" {
		spec.Engine = f.engine
	}
	if f.timeLimit > 0 {
		spec.TimeLimitSeconds = f.timeLimit
	}
}

func (f *engineFlags) options() solver.EngineOptions {
	return solver.EngineOptions{CBCPath: f.cbcPath, NodeLimit: f.nodeLimit}
}

func loadSpec(path string) (*config.PlannerSpec, error) {
	if path == "" {
		return nil, &inputError{err: errors.New("--config is required")}
	}
	spec, err := config.LoadSpec(path)
	if err != nil {
		return nil, &inputError{err: err}
	}
	return spec, nil
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Plan a minimum-cost accelerator fleet for an LLM serving workload",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := logger.InitLogger(); err != nil {
				return err
			}
			logger.Log = logger.Log.With("run_id", uuid.New().String())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			logger.SyncLogger()
		},
	}
	root.AddCommand(newSolveCmd(), newSweepCmd(), newServeCmd())
	return root
}

// signalContext returns a context cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the command line and returns the exit code.
func Execute(args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)

	// commands stop cleanly on ctrl+c
	ctx, cancel := signalContext(context.Background())
	defer cancel()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return ExitCode(err)
}
