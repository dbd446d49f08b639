package optimizer

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// Grid is the per-dimension search grid: Points evenly spaced values from Lower to
// Upper inclusive. The same grid is used for every phase.
type Grid struct {
	Lower  float64
	Upper  float64
	Points int
}

// DefaultGrid returns the grid used for the given phase count.
//
// Default values:
//   - Lower: 0.5
//   - Upper: 0.9999
//   - Points: 1000 for one or two phases, 25 for four
func DefaultGrid(phases int) Grid {
	points := DefaultPointsLowDim
	if phases > 2 {
		points = DefaultPointsHighDim
	}
	return Grid{Lower: DefaultLowerBound, Upper: DefaultUpperBound, Points: points}
}

func (g Grid) Validate() error {
	switch {
	case math.IsNaN(g.Lower) || math.IsNaN(g.Upper):
		return utils.ConfigErrorf("grid bounds must be numbers, got [%v, %v]", g.Lower, g.Upper)
	case g.Lower < 0 || g.Upper >= 1:
		return utils.ConfigErrorf("grid bounds must lie in [0, 1), got [%v, %v]", g.Lower, g.Upper)
	case g.Lower > g.Upper:
		return utils.ConfigErrorf("grid lower bound %v exceeds upper bound %v", g.Lower, g.Upper)
	case g.Points < 1:
		return utils.ConfigErrorf("grid needs at least one point, got %d", g.Points)
	case g.Points > 1 && g.Lower == g.Upper:
		return utils.ConfigErrorf("grid with %d points needs distinct bounds", g.Points)
	}
	return nil
}

// Values returns the grid points in increasing order.
func (g Grid) Values() []float64 {
	if g.Points == 1 {
		return []float64{g.Lower}
	}
	values := floats.Span(make([]float64, g.Points), g.Lower, g.Upper)
	values[len(values)-1] = g.Upper
	return values
}

// Size is the number of candidate tuples for the given phase count, or an error when
// it exceeds MaxEvaluations.
func (g Grid) Size(phases int) (int, error) {
	total := 1
	for i := 0; i < phases; i++ {
		if total > MaxEvaluations/g.Points {
			return 0, utils.ConfigErrorf("%d points over %d phases exceeds %d evaluations", g.Points, phases, MaxEvaluations)
		}
		total *= g.Points
	}
	return total, nil
}

// tuple decodes a flat grid index into per-phase probabilities. Phase 0 varies slowest,
// matching row-major order over the Cartesian product.
func tuple(values []float64, phases, index int, dst []float64) []float64 {
	dst = dst[:phases]
	n := len(values)
	for i := phases - 1; i >= 0; i-- {
		dst[i] = values[index%n]
		index /= n
	}
	return dst
}
