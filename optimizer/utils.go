package optimizer

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// WithWorkers sets the number of concurrent evaluators. Values below 1 are raised to 1.
func WithWorkers(n int) OptimizerOption {
	return func(o *Optimizer) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithGrid overrides the search grid for one phase count.
func WithGrid(phases int, grid Grid) OptimizerOption {
	return func(o *Optimizer) {
		o.grids[phases] = grid
	}
}

// WithGridPoints keeps the default bounds but changes the density for every phase count.
func WithGridPoints(points int) OptimizerOption {
	return func(o *Optimizer) {
		for _, phases := range SupportedPhases {
			g := o.grid(phases)
			g.Points = points
			o.grids[phases] = g
		}
	}
}

// WithBounds changes the search interval for every phase count.
func WithBounds(lower, upper float64) OptimizerOption {
	return func(o *Optimizer) {
		for _, phases := range SupportedPhases {
			g := o.grid(phases)
			g.Lower, g.Upper = lower, upper
			o.grids[phases] = g
		}
	}
}

func WithLogger(logger utils.Logger) OptimizerOption {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithDebugManager(dm *utils.DebugManager) OptimizerOption {
	return func(o *Optimizer) {
		o.debugManager = dm
	}
}

func WithProgress(fn ProgressFunc) OptimizerOption {
	return func(o *Optimizer) {
		o.progress = fn
	}
}

// WithProgressInterval sets how often progress is logged at debug level.
func WithProgressInterval(d time.Duration) OptimizerOption {
	return func(o *Optimizer) {
		if d <= 0 {
			o.logLimiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		o.logLimiter = rate.NewLimiter(rate.Every(d), 1)
	}
}
