package rest

/**
 * Parameters
 */

// header carrying the id of a planning run
const RunIDHeader = "X-Run-ID"

// maximum number of rates in one sweep request
var MaxSweepRates = 256

// solve time limit of requests that set none
var DefaultTimeLimitSeconds = 60
