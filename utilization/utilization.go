// Package utilization maps per-phase acceptance probabilities to the utilization they
// buy: the mean, across phases, of the offered-load quantile at each probability.
package utilization

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/shengjiex98/pwcet-safety/utils"
)

const (
	// ParetoShape is the tail index of the shifted Pareto load; above 2 so the variance is finite.
	ParetoShape = 2.1
	// UniformUpper is the upper end of the Uniform(0, UniformUpper) load.
	UniformUpper = 10.0
)

// Func is the objective-shaping capability the optimizer needs.
type Func interface {
	Utilization(probs ...float64) (float64, error)
}

// Distribution names an offered-load family.
type Distribution string

const (
	Pareto  Distribution = "pareto"
	Normal  Distribution = "normal"
	Uniform Distribution = "uniform"
)

// Distributions lists the built-in families in report order.
func Distributions() []Distribution {
	return []Distribution{Pareto, Normal, Uniform}
}

func ParseDistribution(s string) (Distribution, error) {
	d := Distribution(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Pareto, Normal, Uniform:
		return d, nil
	default:
		return "", utils.ConfigErrorf("unknown distribution %q (want pareto, normal or uniform)", s)
	}
}

func (d Distribution) String() string { return string(d) }

// positiveSupport reports whether every quantile of the family in (0, 1) is positive.
func (d Distribution) positiveSupport() bool {
	return d == Pareto || d == Uniform
}

// Quantile returns the load quantile at probability p.
//
// Pareto and Normal report +Inf at p >= 1. Uniform has bounded support and does not
// special-case p == 1; any p >= 1 reaching it is rejected as a configuration error.
func (d Distribution) Quantile(p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 {
		return 0, utils.ConfigErrorf("%s quantile: probability must be non-negative, got %v", d, p)
	}
	switch d {
	case Pareto:
		if p >= 1 {
			return math.Inf(1), nil
		}
		return math.Pow(1-p, -1/ParetoShape) - 1, nil
	case Normal:
		if p >= 1 {
			return math.Inf(1), nil
		}
		return distuv.UnitNormal.Quantile(p), nil
	case Uniform:
		if p >= 1 {
			return 0, utils.ConfigErrorf("uniform quantile: probability must be below 1, got %v", p)
		}
		return UniformUpper * p, nil
	default:
		return 0, utils.ConfigErrorf("unknown distribution %q", string(d))
	}
}

// Utilization averages the quantiles of probs. A NaN mean, or a non-positive mean for
// a positive-support family, is reported as a numeric error.
func (d Distribution) Utilization(probs ...float64) (float64, error) {
	if len(probs) == 0 {
		return 0, utils.ConfigErrorf("%s utilization: no probabilities given", d)
	}
	quantiles := make([]float64, len(probs))
	for i, p := range probs {
		q, err := d.Quantile(p)
		if err != nil {
			return 0, err
		}
		quantiles[i] = q
	}

	u := stat.Mean(quantiles, nil)
	if math.IsNaN(u) {
		return 0, utils.NumericErrorf("%s utilization of %v is NaN", d, probs)
	}
	if d.positiveSupport() && u <= 0 {
		return 0, utils.NumericErrorf("%s utilization of %v is %v, want > 0", d, probs, u)
	}
	return u, nil
}

var _ Func = Pareto
