package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shengjiex98/pwcet-safety/dtmc"
	"github.com/shengjiex98/pwcet-safety/report"
	"github.com/shengjiex98/pwcet-safety/sweep"
	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

func newOptimizeCmd(flags *cmdFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Find the best operating point for one configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			w, err := report.NewWriter(flags.format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			opts := []sweep.RunnerOption{
				sweep.WithLogger(re.logger),
				sweep.WithDebugManager(re.debug),
			}
			if flags.progress {
				bar := newProgressReporter(cmd.ErrOrStderr(), "searching")
				defer bar.finish()
				opts = append(opts, sweep.WithProgress(bar.update))
			}

			runner := sweep.NewRunner(re.cfg, opts...)
			return runner.Run(cmd.Context(), sweep.Plan{{}}, w)
		},
	}
}

func newSweepCmd(flags *cmdFlags) *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Optimize every configuration of a plan",
		Long: `Optimize every configuration of a plan and print one record per configuration.
Without --plan the study grid is used: windows 1 to 6, hits 1 to window-1, every
distribution, with 1 and then 2 phases. Plan files hold "window,hits[,distribution[,phases]]"
lines (.txt, .csv) or JSON objects (.jsonl); omitted fields come from the flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			plan := sweep.DefaultPlan()
			if planPath != "" {
				if plan, err = sweep.ReadPlan(planPath); err != nil {
					return err
				}
			}
			w, err := report.NewWriter(flags.format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			opts := []sweep.RunnerOption{
				sweep.WithLogger(re.logger),
				sweep.WithDebugManager(re.debug),
			}
			if flags.progress {
				bar := newProgressReporter(cmd.ErrOrStderr(), "cases")
				defer bar.finish()
				opts = append(opts, sweep.WithCaseDone(bar.update))
			}

			runner := sweep.NewRunner(re.cfg, opts...)
			re.logger.Info("sweep plan loaded", "run_id", runner.RunID(), "cases", len(plan), "plan", planPath)
			return runner.Run(cmd.Context(), plan, w)
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "Plan file (.txt, .csv or .jsonl)")
	return cmd
}

// evaluation is the output of the evaluate command.
type evaluation struct {
	Window       int          `json:"window"`
	Hits         int          `json:"hits"`
	Horizon      int          `json:"horizon"`
	Params       []float64    `json:"params"`
	Confidence   float64      `json:"confidence"`
	Target       float64      `json:"target"`
	Feasible     bool         `json:"feasible"`
	Distribution string       `json:"distribution"`
	Utilization  report.Float `json:"utilization"`
}

func newEvaluateCmd(flags *cmdFlags) *cobra.Command {
	var probs []float64

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute the no-violation probability of fixed phase probabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(probs) == 0 {
				return utils.ConfigErrorf("--p needs at least one probability")
			}
			// The phase count is the length of --p.
			if err := cmd.Flags().Set("phases", fmt.Sprint(len(probs))); err != nil {
				return err
			}
			re, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			cfg := re.cfg

			states, err := dtmc.BuildStates(cfg.Hits, cfg.Window)
			if err != nil {
				return err
			}
			confidence, err := dtmc.EvaluatePhases(states, probs, cfg.Horizon)
			if err != nil {
				return err
			}
			dist, err := utilization.ParseDistribution(cfg.Distribution)
			if err != nil {
				return err
			}
			util, err := dist.Utilization(probs...)
			if err != nil {
				return err
			}

			re.logger.Debug("evaluated phase probabilities", "params", probs, "confidence", confidence)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(evaluation{
				Window:       cfg.Window,
				Hits:         cfg.Hits,
				Horizon:      cfg.Horizon,
				Params:       probs,
				Confidence:   confidence,
				Target:       cfg.Confidence,
				Feasible:     confidence > cfg.Confidence,
				Distribution: dist.String(),
				Utilization:  report.Float(util),
			})
		},
	}
	cmd.Flags().Float64SliceVar(&probs, "p", nil, "Acceptance probability per phase, comma separated")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the records written with -o json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := report.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	}
}
