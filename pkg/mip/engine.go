package mip

import (
	"context"
	"errors"
	"fmt"
)

// ErrEngine is matched by every failure of a solving engine: engine
// unavailable, crashed or malformed output. A problem that has no solution is
// not an engine failure, it is reported through Result.Status.
var ErrEngine = errors.New("solver engine failure")

// Engine solves mixed-integer problems.
type Engine interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*Result, error)
}

// EngineError wraps the cause of an engine failure.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s engine: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() []error {
	return []error{ErrEngine, e.Err}
}

// Failure builds an EngineError from a formatted message.
func Failure(engine, format string, args ...any) error {
	return &EngineError{Engine: engine, Err: fmt.Errorf(format, args...)}
}
