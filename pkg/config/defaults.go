package config

/**
 * Parameters
 */

// number of slices per bucket when not specified
const DefaultSliceFactor = 1

// tolerated deviation of the workload distribution sum from 1
var NormalizationTolerance = 1e-6

// deviation of the distribution sum from 1 worth a warning
var NormalizationWarnThreshold = 1e-9

// engine used when none is specified
const DefaultEngine = "cbc"

// reserved key of the total cost in exported results
const CostKey = "cost"

// maximum number of planning scenarios solved concurrently in a sweep
var MaxParallelScenarios = 4

// node limit of the branch-and-bound engine
var DefaultNodeLimit = 200000

/**
 * Environment variables
 */

// REST server env names
const PlannerHostEnvName = "PLANNER_HOST"
const PlannerPortEnvName = "PLANNER_PORT"

// path of the CBC executable
const CBCPathEnvName = "CBC_PATH"

// defaults for the above
const DefaultPlannerHost = ""
const DefaultPlannerPort = "8080"
const DefaultCBCPath = "cbc"
