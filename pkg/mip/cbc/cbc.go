// Package cbc drives the COIN-OR CBC command line solver: the problem is
// written in LP format, solved by a cbc process and read back from its
// solution file.
package cbc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
)

const EngineName = "cbc"

// maximum bytes of solver output quoted in errors
const maxOutputInError = 2048

// Engine runs the CBC executable at Path
type Engine struct {
	Path      string
	TimeLimit time.Duration // passed to cbc as "sec"; zero means none
	KeepFiles string        // directory to keep model and solution files in; empty uses a removed temp dir
}

func New(path string) *Engine {
	return &Engine{Path: path}
}

func (e *Engine) Name() string {
	return EngineName
}

// Solve writes p to a model file, runs cbc on it and parses the solution.
// Cancellation of ctx kills the process and yields status NotSolved.
func (e *Engine) Solve(ctx context.Context, p *mip.Problem) (*mip.Result, error) {
	bin, err := exec.LookPath(e.Path)
	if err != nil {
		return nil, &mip.EngineError{Engine: EngineName, Err: fmt.Errorf("executable unavailable: %w", err)}
	}

	dir := e.KeepFiles
	if dir == "" {
		if dir, err = os.MkdirTemp("", "fleet-planner-cbc-*"); err != nil {
			return nil, &mip.EngineError{Engine: EngineName, Err: err}
		}
		defer os.RemoveAll(dir)
	}
	modelPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")

	var model bytes.Buffer
	if err := mip.WriteLP(&model, p); err != nil {
		return nil, &mip.EngineError{Engine: EngineName, Err: err}
	}
	if err := os.WriteFile(modelPath, model.Bytes(), 0o600); err != nil {
		return nil, &mip.EngineError{Engine: EngineName, Err: err}
	}

	args := []string{modelPath}
	if e.TimeLimit > 0 {
		args = append(args, "sec", strconv.Itoa(int(e.TimeLimit.Seconds())))
	}
	args = append(args, "solve", "solu", solPath)

	cmd := exec.CommandContext(ctx, bin, args...)
	startTime := time.Now()
	out, runErr := cmd.CombinedOutput()
	logger.Log.Debugw("cbc finished", "problem", p.Name, "args", args, "elapsed", time.Since(startTime))

	if ctx.Err() != nil {
		logger.Log.Warnw("cbc interrupted", "problem", p.Name, "error", ctx.Err())
		return &mip.Result{Status: mip.NotSolved}, nil
	}
	if runErr != nil {
		return nil, &mip.EngineError{Engine: EngineName,
			Err: fmt.Errorf("%w: %s", runErr, tail(out, maxOutputInError))}
	}

	f, err := os.Open(solPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &mip.EngineError{Engine: EngineName,
				Err: fmt.Errorf("no solution file written: %s", tail(out, maxOutputInError))}
		}
		return nil, &mip.EngineError{Engine: EngineName, Err: err}
	}
	defer f.Close()

	res, err := ParseSolution(f, p.NumVars())
	if err != nil {
		return nil, &mip.EngineError{Engine: EngineName, Err: err}
	}
	return res, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}
