package rest

import (
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

// A stateless REST server: every call plans from the spec in its request
type PlannerServer struct {
	BaseServer
}

// create a stateless planner server
func NewPlannerServer(engineOpts solver.EngineOptions) (*PlannerServer, error) {
	base, err := NewBaseServer(engineOpts)
	if err != nil {
		return nil, err
	}
	server := &PlannerServer{
		BaseServer: *base,
	}

	server.router.POST("/plan", server.plan)
	server.router.POST("/sweep", server.sweep)
	server.router.POST("/compare", server.compare)

	return server, nil
}
