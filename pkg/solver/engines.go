package solver

import (
	"fmt"
	"time"

	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip/bnb"
	"github.com/llm-d-incubation/fleet-planner/pkg/mip/cbc"
)

// EngineOptions configures the engine created by NewEngine.
type EngineOptions struct {
	CBCPath   string        // path of the cbc executable
	TimeLimit time.Duration // limit handed to engines that enforce one themselves
	NodeLimit int           // branch-and-bound node limit
}

// EngineNames lists the engines known to NewEngine, the default first.
var EngineNames = []string{cbc.EngineName, bnb.EngineName}

// NewEngine creates the solving engine with the given name.
func NewEngine(name string, opts EngineOptions) (mip.Engine, error) {
	switch name {
	case "", cbc.EngineName:
		path := opts.CBCPath
		if path == "" {
			path = config.GetEnvOrDefault(config.CBCPathEnvName, config.DefaultCBCPath)
		}
		e := cbc.New(path)
		e.TimeLimit = opts.TimeLimit
		return e, nil
	case bnb.EngineName:
		var bnbOpts []bnb.Option
		if opts.NodeLimit > 0 {
			bnbOpts = append(bnbOpts, bnb.WithNodeLimit(opts.NodeLimit))
		}
		return bnb.New(bnbOpts...), nil
	default:
		return nil, &config.ValidationError{Field: "engine",
			Reason: fmt.Sprintf("unknown solver engine %q, expected one of %v", name, EngineNames)}
	}
}
