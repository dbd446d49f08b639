package sweep

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shengjiex98/pwcet-safety/config"
	"github.com/shengjiex98/pwcet-safety/dtmc"
	"github.com/shengjiex98/pwcet-safety/optimizer"
	"github.com/shengjiex98/pwcet-safety/report"
	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

type stateKey struct {
	window, hits int
}

// Runner evaluates plan cases one after another. Each case still fans out over the
// optimizer's worker pool. A Runner is not safe for concurrent use.
type Runner struct {
	base         config.Config
	runID        string
	logger       utils.Logger
	debugManager *utils.DebugManager
	progress     optimizer.ProgressFunc
	caseDone     func(done, total int)
	states       map[stateKey]*dtmc.StateIndex
}

type RunnerOption func(*Runner)

func WithLogger(logger utils.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithDebugManager(dm *utils.DebugManager) RunnerOption {
	return func(r *Runner) {
		r.debugManager = dm
	}
}

// WithProgress reports grid progress within each case.
func WithProgress(fn optimizer.ProgressFunc) RunnerOption {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithCaseDone is called after every finished case.
func WithCaseDone(fn func(done, total int)) RunnerOption {
	return func(r *Runner) {
		r.caseDone = fn
	}
}

// WithRunID replaces the generated run ID.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner copies base, so later changes to it do not affect the runner.
func NewRunner(base *config.Config, opts ...RunnerOption) *Runner {
	if base == nil {
		base = config.NewConfig()
	}
	r := &Runner{
		base:   *base,
		runID:  uuid.NewString(),
		logger: utils.NewNopLogger(),
		states: make(map[stateKey]*dtmc.StateIndex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) RunID() string {
	return r.runID
}

// Run evaluates every case and writes its record as soon as it is known. The first
// failing case stops the run; records already written stay written.
func (r *Runner) Run(ctx context.Context, plan Plan, w report.Writer) error {
	r.logger.Info("starting sweep", "run_id", r.runID, "cases", len(plan))

	for i, c := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := r.RunCase(c)
		if err != nil {
			r.logger.Error("case failed", "run_id", r.runID, "case", i+1, "error", err)
			return fmt.Errorf("case %d (%s): %w", i+1, c, err)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush records: %w", err)
		}
		if r.caseDone != nil {
			r.caseDone(i+1, len(plan))
		}
	}

	r.logger.Info("sweep complete", "run_id", r.runID, "cases", len(plan))
	return w.Flush()
}

// Config returns the base configuration with the case's overrides applied.
func (r *Runner) Config(c Case) *config.Config {
	cfg := r.base
	if c.Window != 0 {
		cfg.Window = c.Window
	}
	if c.Hits != 0 {
		cfg.Hits = c.Hits
	}
	if c.Distribution != "" {
		cfg.Distribution = c.Distribution
	}
	if c.Phases != 0 {
		cfg.Phases = c.Phases
	}
	return &cfg
}

// RunCase optimizes a single case.
func (r *Runner) RunCase(c Case) (report.Record, error) {
	cfg := r.Config(c)
	if err := config.Validate(cfg); err != nil {
		return report.Record{}, err
	}
	dist, err := utilization.ParseDistribution(cfg.Distribution)
	if err != nil {
		return report.Record{}, err
	}
	states, err := r.stateIndex(cfg.Window, cfg.Hits)
	if err != nil {
		return report.Record{}, err
	}

	opt, err := optimizer.NewOptimizer(states, cfg.Horizon, cfg.Confidence, dist, r.optimizerOptions(cfg)...)
	if err != nil {
		return report.Record{}, err
	}

	r.logger.Debug("optimizing case", "run_id", r.runID, "window", cfg.Window, "hits", cfg.Hits,
		"distribution", dist, "phases", cfg.Phases)
	res, err := opt.Optimize(cfg.Phases)
	if err != nil {
		return report.Record{}, err
	}

	rec := report.NewRecord(cfg, res)
	rec.Distribution = dist.String()
	rec.RunID = r.runID
	return rec, nil
}

func (r *Runner) optimizerOptions(cfg *config.Config) []optimizer.OptimizerOption {
	opts := []optimizer.OptimizerOption{
		optimizer.WithWorkers(cfg.Workers),
		optimizer.WithLogger(r.logger),
		optimizer.WithProgressInterval(cfg.ProgressInterval),
		optimizer.WithBounds(cfg.LowerBound, cfg.UpperBound),
	}
	if cfg.GridPoints > 0 {
		opts = append(opts, optimizer.WithGridPoints(cfg.GridPoints))
	}
	if r.debugManager != nil {
		opts = append(opts, optimizer.WithDebugManager(r.debugManager))
	}
	if r.progress != nil {
		opts = append(opts, optimizer.WithProgress(r.progress))
	}
	return opts
}

// stateIndex builds each (window, hits) state space once per runner.
func (r *Runner) stateIndex(window, hits int) (*dtmc.StateIndex, error) {
	key := stateKey{window, hits}
	if idx, ok := r.states[key]; ok {
		return idx, nil
	}
	idx, err := dtmc.BuildStates(hits, window)
	if err != nil {
		return nil, err
	}
	r.states[key] = idx
	return idx, nil
}
