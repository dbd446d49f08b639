// Package config loads and validates the parameters of an optimization run.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// Config describes one (window, hits, horizon, confidence, distribution, phases)
// configuration plus the knobs of the search that evaluates it.
type Config struct {
	Window       int     `env:"PWCET_WINDOW" envDefault:"5" validate:"min=1,max=12"`
	Hits         int     `env:"PWCET_HITS" envDefault:"3" validate:"min=1,ltefield=Window"`
	Horizon      int     `env:"PWCET_HORIZON" envDefault:"100" validate:"min=1"`
	Confidence   float64 `env:"PWCET_CONFIDENCE" envDefault:"0.99" validate:"gt=0,lt=1"`
	Distribution string  `env:"PWCET_DISTRIBUTION" envDefault:"pareto" validate:"distribution"`
	Phases       int     `env:"PWCET_PHASES" envDefault:"1" validate:"oneof=1 2 4"`

	// Workers is the size of the evaluation pool.
	Workers int `env:"PWCET_WORKERS" envDefault:"8" validate:"min=1"`
	// GridPoints overrides the per-dimension grid density; 0 keeps the defaults
	// (1000 points for one or two phases, 25 for four).
	GridPoints int     `env:"PWCET_GRID_POINTS" envDefault:"0" validate:"min=0"`
	LowerBound float64 `env:"PWCET_LOWER_BOUND" envDefault:"0.5" validate:"gte=0,lt=1"`
	UpperBound float64 `env:"PWCET_UPPER_BOUND" envDefault:"0.9999" validate:"gt=0,lt=1,gtefield=LowerBound"`

	LogLevel         utils.LogLevel `env:"PWCET_LOG_LEVEL" envDefault:"WARN"`
	ProgressInterval time.Duration  `env:"PWCET_PROGRESS_INTERVAL" envDefault:"2s"`
	DebugDir         string         `env:"PWCET_DEBUG_DIR"`
}

// LoadConfig reads the configuration from the environment. It does not validate; call
// Validate after applying any overrides.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, utils.NewError(utils.ErrorTypeConfiguration, "failed to parse environment", err)
	}
	return cfg, nil
}

type ConfigOption func(*Config)

// NewConfig returns the defaults: a 3-of-5 window over 100 steps
// at 99% confidence with a Pareto load and a single phase.
func NewConfig() *Config {
	return &Config{
		Window:           5,
		Hits:             3,
		Horizon:          100,
		Confidence:       0.99,
		Distribution:     "pareto",
		Phases:           1,
		Workers:          8,
		LowerBound:       0.5,
		UpperBound:       0.9999,
		LogLevel:         utils.LogLevelWarn,
		ProgressInterval: 2 * time.Second,
	}
}

func SetWindow(window int) ConfigOption {
	return func(c *Config) {
		c.Window = window
	}
}

func SetHits(hits int) ConfigOption {
	return func(c *Config) {
		c.Hits = hits
	}
}

func SetHorizon(horizon int) ConfigOption {
	return func(c *Config) {
		c.Horizon = horizon
	}
}

func SetConfidence(confidence float64) ConfigOption {
	return func(c *Config) {
		c.Confidence = confidence
	}
}

func SetDistribution(distribution string) ConfigOption {
	return func(c *Config) {
		c.Distribution = distribution
	}
}

func SetPhases(phases int) ConfigOption {
	return func(c *Config) {
		c.Phases = phases
	}
}

func SetWorkers(workers int) ConfigOption {
	return func(c *Config) {
		c.Workers = workers
	}
}

func SetGridPoints(points int) ConfigOption {
	return func(c *Config) {
		c.GridPoints = points
	}
}

func SetBounds(lower, upper float64) ConfigOption {
	return func(c *Config) {
		c.LowerBound = lower
		c.UpperBound = upper
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetProgressInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.ProgressInterval = interval
	}
}

func SetDebugDir(dir string) ConfigOption {
	return func(c *Config) {
		c.DebugDir = dir
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
