package dtmc

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// BuildMatrix assembles the one-step transition matrix for acceptance probability p.
// Each admissible row puts p on its hit successor and 1-p on its miss successor (Out
// when the miss leaves too few hits). Out is absorbing.
func BuildMatrix(idx *StateIndex, p float64) (*mat.Dense, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, utils.ConfigErrorf("acceptance probability must be in [0, 1], got %v", p)
	}

	n := idx.Len()
	m := mat.NewDense(n, n, nil)
	for i, s := range idx.states {
		if s == Out {
			m.Set(i, i, 1)
			continue
		}
		hit, err := idx.Successor(s, true)
		if err != nil {
			return nil, err
		}
		miss, err := idx.Successor(s, false)
		if err != nil {
			return nil, err
		}
		// hit != miss always: the two successors differ in their newest bit.
		m.Set(i, hit, p)
		m.Set(i, miss, 1-p)
	}
	return m, nil
}

// BuildPhaseMatrices builds one matrix per phase probability, in phase order.
func BuildPhaseMatrices(idx *StateIndex, probs []float64) ([]*mat.Dense, error) {
	if len(probs) == 0 {
		return nil, utils.ConfigErrorf("at least one phase probability is required")
	}
	phases := make([]*mat.Dense, len(probs))
	for i, p := range probs {
		m, err := BuildMatrix(idx, p)
		if err != nil {
			return nil, err
		}
		phases[i] = m
	}
	return phases, nil
}
