package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/core"
	"github.com/llm-d-incubation/fleet-planner/pkg/manager"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

// Handlers for REST API calls

// PlanResponse is the body of a successful plan call.
type PlanResponse struct {
	RunID            string                        `json:"run_id"`
	Fleet            map[string]int                `json:"fleet"`
	Cost             float64                       `json:"cost"`
	Engine           string                        `json:"engine"`
	SolutionTimeMsec int64                         `json:"solution_time_msec"`
	Baselines        []manager.HomogeneousBaseline `json:"baselines,omitempty"`
}

// SweepRequest plans the spec at each of the rates.
type SweepRequest struct {
	Spec  config.PlannerSpec `json:"spec"`
	Rates []float64          `json:"rates"`
}

type ScenarioResponse struct {
	Rate  float64        `json:"rate"`
	Fleet map[string]int `json:"fleet,omitempty"`
	Cost  *float64       `json:"cost,omitempty"`
	Error string         `json:"error,omitempty"`
}

type SweepResponse struct {
	RunID     string             `json:"run_id"`
	Scenarios []ScenarioResponse `json:"scenarios"`
}

// ErrorResponse is the body of a failed call.
type ErrorResponse struct {
	RunID   string              `json:"run_id,omitempty"`
	Message string              `json:"message"`
	Details []config.FieldIssue `json:"details,omitempty"`
}

func (server *BaseServer) healthz(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok", "engines": solver.EngineNames})
}

func (server *BaseServer) plan(c *gin.Context) {
	runID := startRun(c)
	spec, err := bindSpec(c)
	if err != nil {
		badRequest(c, runID, err)
		return
	}
	mgr, err := server.newManager(spec)
	if err != nil {
		fail(c, runID, err)
		return
	}
	sol, err := mgr.Plan(c.Request.Context(), spec)
	if err != nil {
		fail(c, runID, err)
		return
	}
	resp := PlanResponse{
		RunID:            runID,
		Fleet:            sol.Fleet,
		Cost:             sol.TotalCost,
		Engine:           sol.Engine,
		SolutionTimeMsec: sol.SolutionTimeMsec,
	}
	if c.Query("compare") == "true" {
		if resp.Baselines, err = manager.CompareHomogeneous(spec); err != nil {
			fail(c, runID, err)
			return
		}
	}
	logger.Log.Infow("plan served", "run_id", runID, "fleet", sol.Fleet, "cost", sol.TotalCost)
	c.IndentedJSON(http.StatusOK, resp)
}

func (server *BaseServer) sweep(c *gin.Context) {
	runID := startRun(c)
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, runID, err)
		return
	}
	if len(req.Rates) == 0 || len(req.Rates) > MaxSweepRates {
		badRequest(c, runID, fmt.Errorf("expected 1 to %d rates, got %d", MaxSweepRates, len(req.Rates)))
		return
	}
	mgr, err := server.newManager(&req.Spec)
	if err != nil {
		fail(c, runID, err)
		return
	}
	scenarios, err := mgr.Sweep(c.Request.Context(), &req.Spec, req.Rates)
	if err != nil {
		fail(c, runID, err)
		return
	}
	resp := SweepResponse{RunID: runID, Scenarios: make([]ScenarioResponse, len(scenarios))}
	for i, s := range scenarios {
		resp.Scenarios[i] = ScenarioResponse{Rate: s.Rate}
		if s.Err != nil {
			resp.Scenarios[i].Error = s.Err.Error()
			continue
		}
		cost := s.Solution.TotalCost
		resp.Scenarios[i].Fleet = s.Solution.Fleet
		resp.Scenarios[i].Cost = &cost
	}
	c.IndentedJSON(http.StatusOK, resp)
}

func (server *BaseServer) compare(c *gin.Context) {
	runID := startRun(c)
	spec, err := bindSpec(c)
	if err != nil {
		badRequest(c, runID, err)
		return
	}
	baselines, err := manager.CompareHomogeneous(spec)
	if err != nil {
		fail(c, runID, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"run_id": runID, "baselines": baselines})
}

func (server *BaseServer) newManager(spec *config.PlannerSpec) (*manager.Manager, error) {
	limited := *spec
	if limited.TimeLimitSeconds <= 0 {
		limited.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	optimizer, err := solver.NewOptimizerFromSpec(&limited, server.engineOpts)
	if err != nil {
		return nil, err
	}
	return manager.NewManager(optimizer), nil
}

// bindSpec decodes the request body as a planner spec, rejecting unknown fields.
func bindSpec(c *gin.Context) (*config.PlannerSpec, error) {
	data, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	return config.ParseSpec(data)
}

func startRun(c *gin.Context) string {
	runID := uuid.New().String()
	c.Header(RunIDHeader, runID)
	return runID
}

func badRequest(c *gin.Context, runID string, err error) {
	c.IndentedJSON(http.StatusBadRequest, ErrorResponse{RunID: runID, Message: "bad request: " + err.Error()})
}

// fail maps a planning error to its status code.
func fail(c *gin.Context, runID string, err error) {
	resp := ErrorResponse{RunID: runID, Message: err.Error()}
	status := StatusCode(err)
	if status == http.StatusBadRequest {
		resp.Details = config.FieldIssues(err)
	}
	if status == http.StatusBadGateway {
		logger.Log.Errorw("planning failed", "run_id", runID, "error", err)
	}
	c.IndentedJSON(status, resp)
}

// StatusCode returns the HTTP status of a planning error.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, config.ErrInvalidSpec), errors.Is(err, core.ErrDomain):
		return http.StatusBadRequest
	case errors.Is(err, solver.ErrNoFeasibleAllocation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
