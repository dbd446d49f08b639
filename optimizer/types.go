package optimizer

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/shengjiex98/pwcet-safety/dtmc"
	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

// Result is the outcome of one search.
//
// Utilization is the mean load quantile the chosen probabilities provision for. The
// search minimizes it: the smallest provisioned quantile that still meets the confidence
// target is the operating point that runs the system hardest.
//
// When no grid tuple reaches the target, Feasible is false and Utilization is +Inf;
// Params and Confidence then describe the most confident tuple seen, so callers can
// tell how far off the target was. Infeasibility is a result, not an error.
type Result struct {
	Utilization float64       `json:"utilization"`
	Params      []float64     `json:"params"`
	Confidence  float64       `json:"confidence"`
	Feasible    bool          `json:"feasible"`
	Phases      int           `json:"phases"`
	Evaluations int           `json:"evaluations"`
	Elapsed     time.Duration `json:"elapsed"`
}

// ProgressFunc is called from worker goroutines after each batch of evaluations.
// It must be safe for concurrent use.
type ProgressFunc func(done, total int)

type OptimizerOption func(*Optimizer)

// Optimizer runs brute-force grid searches over phase probabilities for one
// (window, hits, horizon, confidence) configuration. The StateIndex is shared read-only
// across all workers; every candidate builds its own matrices.
type Optimizer struct {
	states     *dtmc.StateIndex
	horizon    int
	confidence float64
	fn         utilization.Func

	workers      int
	grids        map[int]Grid
	logger       utils.Logger
	debugManager *utils.DebugManager
	progress     ProgressFunc
	logLimiter   *rate.Limiter
}

// candidate is one evaluated grid tuple.
type candidate struct {
	index       int
	params      []float64
	utilization float64
	confidence  float64
}

// better orders feasible candidates: the smaller mean quantile wins, ties go to the
// lower grid index so the outcome does not depend on worker scheduling.
func (c *candidate) better(than *candidate) bool {
	if than == nil {
		return true
	}
	if c.utilization != than.utilization {
		return c.utilization < than.utilization
	}
	return c.index < than.index
}

// moreConfident orders candidates by achieved confidence with the same tie rule.
func (c *candidate) moreConfident(than *candidate) bool {
	if than == nil {
		return true
	}
	if c.confidence != than.confidence {
		return c.confidence > than.confidence
	}
	return c.index < than.index
}
