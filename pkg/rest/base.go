package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llm-d-incubation/fleet-planner/internal/logger"
	"github.com/llm-d-incubation/fleet-planner/internal/metrics"
	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

// time allowed for in-flight requests when the server stops
var ShutdownTimeout = 10 * time.Second

// Base REST server
type BaseServer struct {
	router     *gin.Engine
	registry   *prometheus.Registry
	engineOpts solver.EngineOptions
}

func NewBaseServer(engineOpts solver.EngineOptions) (*BaseServer, error) {
	registry := prometheus.NewRegistry()
	if err := metrics.InitMetrics(registry); err != nil {
		return nil, err
	}
	server := &BaseServer{
		router:     gin.Default(),
		registry:   registry,
		engineOpts: engineOpts,
	}
	server.router.GET("/healthz", server.healthz)
	server.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return server, nil
}

// Handler returns the HTTP handler of the server.
func (server *BaseServer) Handler() http.Handler {
	return server.router
}

// Addr returns the listen address from the environment.
func Addr() string {
	host := config.GetEnvOrDefault(config.PlannerHostEnvName, config.DefaultPlannerHost)
	port := config.GetEnvOrDefault(config.PlannerPortEnvName, config.DefaultPlannerPort)
	return host + ":" + port
}

// Run serves on addr until ctx is done.
func (server *BaseServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infow("planner server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
