package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	planningRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_planner_runs_total",
			Help: "Total number of planning runs by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)
	planningDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_planner_run_duration_seconds",
			Help:    "Duration of planning runs, including model solving",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"engine"},
	)
	recommendedInstances = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleet_planner_recommended_instances",
			Help: "Instance count of each accelerator type in the last recommended fleet",
		},
		[]string{"accelerator_type"},
	)
)

// InitMetrics registers all custom metrics with the provided registry.
// Metrics are recorded whether or not they are registered.
func InitMetrics(registry prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{planningRuns, planningDuration, recommendedInstances} {
		if err := registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObservePlanningRun records the outcome and duration of a planning run.
func ObservePlanningRun(engine, outcome string, d time.Duration) {
	planningRuns.With(prometheus.Labels{"engine": engine, "outcome": outcome}).Inc()
	planningDuration.With(prometheus.Labels{"engine": engine}).Observe(d.Seconds())
}

// SetRecommendedInstances publishes the instance counts of a fleet.
func SetRecommendedInstances(fleet map[string]int) {
	for acc, count := range fleet {
		recommendedInstances.With(prometheus.Labels{"accelerator_type": acc}).Set(float64(count))
	}
}
