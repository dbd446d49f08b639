package optimizer

import (
	"math"
	"slices"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/shengjiex98/pwcet-safety/dtmc"
	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

// NewOptimizer validates the configuration and applies options.
func NewOptimizer(states *dtmc.StateIndex, horizon int, confidence float64, fn utilization.Func, opts ...OptimizerOption) (*Optimizer, error) {
	if states == nil {
		return nil, utils.ConfigErrorf("state index is required")
	}
	if fn == nil {
		return nil, utils.ConfigErrorf("utilization function is required")
	}
	if horizon < 1 {
		return nil, utils.ConfigErrorf("horizon must be positive, got %d", horizon)
	}
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return nil, utils.ConfigErrorf("confidence must be in (0, 1), got %v", confidence)
	}

	o := &Optimizer{
		states:     states,
		horizon:    horizon,
		confidence: confidence,
		fn:         fn,
		workers:    DefaultWorkers,
		grids:      make(map[int]Grid, len(SupportedPhases)),
		logger:     utils.NewNopLogger(),
		logLimiter: rate.NewLimiter(rate.Every(DefaultProgressInterval), 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Optimizer) grid(phases int) Grid {
	if g, ok := o.grids[phases]; ok {
		return g
	}
	return DefaultGrid(phases)
}

// Optimize1D searches a single probability applied at every step.
func (o *Optimizer) Optimize1D() (Result, error) { return o.Optimize(1) }

// Optimize2D searches two probabilities alternating step by step.
func (o *Optimizer) Optimize2D() (Result, error) { return o.Optimize(2) }

// Optimize4D searches four probabilities applied round-robin.
func (o *Optimizer) Optimize4D() (Result, error) { return o.Optimize(4) }

// Optimize finds the grid tuple with the smallest utilization value subject to
// P(no violation within horizon) > confidence.
//
// Every arity follows the same contract: infeasible tuples never win, the winner's
// confidence is recomputed before it is reported, and when nothing qualifies the
// result is Feasible=false with Utilization=+Inf. Any evaluation error aborts the
// whole search.
func (o *Optimizer) Optimize(phases int) (Result, error) {
	if !slices.Contains(SupportedPhases, phases) {
		return Result{}, utils.ConfigErrorf("phase count must be one of %v, got %d", SupportedPhases, phases)
	}
	if o.horizon%phases != 0 {
		return Result{}, utils.ConfigErrorf("horizon %d is not a multiple of the phase count %d", o.horizon, phases)
	}
	grid := o.grid(phases)
	if err := grid.Validate(); err != nil {
		return Result{}, err
	}
	total, err := grid.Size(phases)
	if err != nil {
		return Result{}, err
	}

	o.logger.Debug("starting grid search",
		"window", o.states.Window(), "hits", o.states.Hits(), "horizon", o.horizon,
		"confidence", o.confidence, "phases", phases, "points", grid.Points,
		"evaluations", total, "workers", o.workers)

	start := time.Now()
	best, closest, err := o.search(grid.Values(), phases, total)
	if err != nil {
		o.logger.Error("grid search aborted", "phases", phases, "error", err)
		return Result{}, err
	}

	res := Result{
		Utilization: math.Inf(1),
		Phases:      phases,
		Evaluations: total,
		Params:      closest.params,
		Confidence:  closest.confidence,
	}
	if best != nil {
		achieved, err := dtmc.EvaluatePhases(o.states, best.params, o.horizon)
		if err != nil {
			return Result{}, err
		}
		if o.feasible(achieved) {
			res.Utilization = best.utilization
			res.Params = best.params
			res.Confidence = achieved
			res.Feasible = true
		} else {
			o.logger.Warn("optimum failed confidence recheck", "params", best.params, "confidence", achieved)
		}
	}
	res.Elapsed = time.Since(start)

	if res.Feasible {
		o.logger.Info("grid search finished",
			"phases", phases, "utilization", res.Utilization, "params", res.Params,
			"confidence", res.Confidence, "elapsed", res.Elapsed)
	} else {
		o.logger.Warn("no feasible operating point",
			"window", o.states.Window(), "hits", o.states.Hits(), "phases", phases,
			"target", o.confidence, "best_confidence", res.Confidence)
	}
	o.trace(res)
	return res, nil
}

func (o *Optimizer) feasible(achieved float64) bool {
	return achieved > o.confidence
}

// evaluate computes the achieved confidence and the utilization of one tuple.
func (o *Optimizer) evaluate(params []float64) (confidence, util float64, err error) {
	confidence, err = dtmc.EvaluatePhases(o.states, params, o.horizon)
	if err != nil {
		return 0, 0, err
	}
	util, err = o.fn.Utilization(params...)
	if err != nil {
		return 0, 0, err
	}
	return confidence, util, nil
}

func (o *Optimizer) trace(res Result) {
	if !o.debugManager.IsEnabled() {
		return
	}
	o.debugManager.SaveTrace("results", map[string]any{
		"window":      o.states.Window(),
		"hits":        o.states.Hits(),
		"horizon":     o.horizon,
		"target":      o.confidence,
		"phases":      res.Phases,
		"feasible":    res.Feasible,
		"params":      res.Params,
		"confidence":  res.Confidence,
		"utilization": jsonFloat(res.Utilization),
		"evaluations": res.Evaluations,
		"elapsed_ms":  res.Elapsed.Milliseconds(),
	})
}

// jsonFloat spells out non-finite values, which encoding/json rejects.
func jsonFloat(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return v
}
