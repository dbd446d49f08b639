package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/shengjiex98/pwcet-safety/config"
	"github.com/shengjiex98/pwcet-safety/utils"
)

// cmdFlags holds the flags shared by every subcommand. They override PWCET_*
// environment values only when set explicitly.
type cmdFlags struct {
	window           int
	hits             int
	horizon          int
	confidence       float64
	distribution     string
	phases           int
	workers          int
	gridPoints       int
	lower            float64
	upper            float64
	logLevel         string
	progressInterval time.Duration
	debugDir         string
	format           string
	progress         bool
}

func newRootCmd() *cobra.Command {
	flags := &cmdFlags{}
	defaults := config.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "pwcet",
		Short: "pwcet - safe operating points for m-of-k admission windows",
		Long: `pwcet models a stream of admitted (hit) and shed (miss) requests as a Markov chain
over the last window outcomes and finds the acceptance probabilities with the smallest
provisioned load quantile that keep P(no violation within horizon) above a target.

Example:
  pwcet optimize -w 5 -k 3 --phases 2 -d normal
  pwcet evaluate -w 5 -k 3 --p 0.9,0.95
  pwcet sweep --plan plan.txt -o json`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&flags.window, "window", "w", defaults.Window, "Window length in steps (1-12)")
	pf.IntVarP(&flags.hits, "hits", "k", defaults.Hits, "Hits required within the window")
	pf.IntVar(&flags.horizon, "horizon", defaults.Horizon, "Number of steps to evaluate")
	pf.Float64VarP(&flags.confidence, "confidence", "c", defaults.Confidence, "Required probability of no violation")
	pf.StringVarP(&flags.distribution, "distribution", "d", defaults.Distribution, "Load distribution: pareto, normal, uniform")
	pf.IntVar(&flags.phases, "phases", defaults.Phases, "Number of cyclic phases: 1, 2 or 4")
	pf.IntVarP(&flags.workers, "workers", "j", defaults.Workers, "Number of concurrent evaluators")
	pf.IntVar(&flags.gridPoints, "grid-points", defaults.GridPoints, "Grid points per phase (0 uses 1000, or 25 for 4 phases)")
	pf.Float64Var(&flags.lower, "lower", defaults.LowerBound, "Lower bound of the probability grid")
	pf.Float64Var(&flags.upper, "upper", defaults.UpperBound, "Upper bound of the probability grid")
	pf.StringVar(&flags.logLevel, "log-level", defaults.LogLevel.String(), "Log level (off, error, warn, info, debug)")
	pf.DurationVar(&flags.progressInterval, "progress-interval", defaults.ProgressInterval, "Minimum time between progress log lines")
	pf.StringVar(&flags.debugDir, "debug-dir", "", "Write search traces to this directory")
	pf.StringVarP(&flags.format, "output", "o", "csv", "Output format: csv, json")
	pf.BoolVar(&flags.progress, "progress", false, "Show a progress bar on stderr")

	rootCmd.AddCommand(
		newOptimizeCmd(flags),
		newEvaluateCmd(flags),
		newSweepCmd(flags),
		newSchemaCmd(),
	)
	return rootCmd
}

// runEnv is what a subcommand needs after flags and environment are merged.
type runEnv struct {
	cfg    *config.Config
	logger utils.Logger
	debug  *utils.DebugManager
}

// setup loads PWCET_* settings, applies explicitly set flags, and validates the result.
func (f *cmdFlags) setup(cmd *cobra.Command) (*runEnv, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	opts, err := f.options(cmd)
	if err != nil {
		return nil, err
	}
	config.ApplyOptions(cfg, opts...)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := utils.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel)
	var dm *utils.DebugManager
	if cfg.DebugDir != "" {
		dm = utils.NewDebugManager(utils.DebugOptions{
			Enabled:    true,
			OutputDir:  cfg.DebugDir,
			SaveToFile: true,
		}, logger)
	}
	return &runEnv{cfg: cfg, logger: logger, debug: dm}, nil
}

func (f *cmdFlags) options(cmd *cobra.Command) ([]config.ConfigOption, error) {
	changed := cmd.Flags().Changed
	var opts []config.ConfigOption

	if changed("window") {
		opts = append(opts, config.SetWindow(f.window))
	}
	if changed("hits") {
		opts = append(opts, config.SetHits(f.hits))
	}
	if changed("horizon") {
		opts = append(opts, config.SetHorizon(f.horizon))
	}
	if changed("confidence") {
		opts = append(opts, config.SetConfidence(f.confidence))
	}
	if changed("distribution") {
		opts = append(opts, config.SetDistribution(f.distribution))
	}
	if changed("phases") {
		opts = append(opts, config.SetPhases(f.phases))
	}
	if changed("workers") {
		opts = append(opts, config.SetWorkers(f.workers))
	}
	if changed("grid-points") {
		opts = append(opts, config.SetGridPoints(f.gridPoints))
	}
	if changed("lower") || changed("upper") {
		lower, upper := f.lower, f.upper
		opts = append(opts, func(c *config.Config) {
			if changed("lower") {
				c.LowerBound = lower
			}
			if changed("upper") {
				c.UpperBound = upper
			}
		})
	}
	if changed("log-level") {
		level, err := utils.ParseLogLevel(f.logLevel)
		if err != nil {
			return nil, utils.NewError(utils.ErrorTypeConfiguration, "invalid --log-level", err)
		}
		opts = append(opts, config.SetLogLevel(level))
	}
	if changed("progress-interval") {
		opts = append(opts, config.SetProgressInterval(f.progressInterval))
	}
	if changed("debug-dir") {
		opts = append(opts, config.SetDebugDir(f.debugDir))
	}
	return opts, nil
}
