package dtmc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// MacroStep multiplies the phase matrices in order, giving the transition matrix of one
// full cycle through the phases.
func MacroStep(phases []*mat.Dense) (*mat.Dense, error) {
	if len(phases) == 0 {
		return nil, utils.ConfigErrorf("at least one phase matrix is required")
	}
	r, c := phases[0].Dims()
	if r != c {
		return nil, utils.ConfigErrorf("phase matrix 0 is not square: %dx%d", r, c)
	}

	macro := mat.DenseCopyOf(phases[0])
	for i, p := range phases[1:] {
		pr, pc := p.Dims()
		if pr != r || pc != c {
			return nil, utils.ConfigErrorf("phase matrix %d is %dx%d, want %dx%d", i+1, pr, pc, r, c)
		}
		var next mat.Dense
		next.Mul(macro, p)
		macro = &next
	}
	return macro, nil
}

// AbsorptionProbability is the probability of having reached Out within horizon steps
// from the all-ones state, with step t using phases[t mod len(phases)].
func AbsorptionProbability(idx *StateIndex, phases []*mat.Dense, horizon int) (float64, error) {
	if horizon < 1 {
		return 0, utils.ConfigErrorf("horizon must be positive, got %d", horizon)
	}
	if len(phases) == 0 {
		return 0, utils.ConfigErrorf("at least one phase matrix is required")
	}
	if horizon%len(phases) != 0 {
		return 0, utils.ConfigErrorf("horizon %d is not a multiple of the phase count %d", horizon, len(phases))
	}
	macro, err := MacroStep(phases)
	if err != nil {
		return 0, err
	}
	if r, _ := macro.Dims(); r != idx.Len() {
		return 0, utils.ConfigErrorf("phase matrices have %d rows, state index has %d states", r, idx.Len())
	}

	var h mat.Dense
	h.Pow(macro, horizon/len(phases))
	return h.At(idx.Start(), idx.Out()), nil
}

// Confidence is the probability that the window never reaches Out within the horizon.
func Confidence(idx *StateIndex, phases []*mat.Dense, horizon int) (float64, error) {
	absorbed, err := AbsorptionProbability(idx, phases, horizon)
	if err != nil {
		return 0, err
	}
	return 1 - absorbed, nil
}

// EvaluatePhases builds the phase matrices for probs and returns the achieved confidence.
func EvaluatePhases(idx *StateIndex, probs []float64, horizon int) (float64, error) {
	if len(probs) > 0 && horizon%len(probs) != 0 {
		return 0, utils.ConfigErrorf("horizon %d is not a multiple of the phase count %d", horizon, len(probs))
	}
	phases, err := BuildPhaseMatrices(idx, probs)
	if err != nil {
		return 0, err
	}
	return Confidence(idx, phases, horizon)
}
