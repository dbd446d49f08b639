package dtmc

import (
	"math/bits"
	"strings"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// MaxWindow bounds the window so the dense matrices stay small (2^12 rows at most).
const MaxWindow = 12

// State is a window history such as "1101", or Out.
type State string

// Out is the absorbing violation state.
const Out State = "out"

// Ones counts the hits in the history. Out has none.
func (s State) Ones() int {
	if s == Out {
		return 0
	}
	return strings.Count(string(s), "1")
}

// Next drops the oldest outcome and appends the new one.
func (s State) Next(hit bool) State {
	if s == Out {
		return Out
	}
	if hit {
		return s[1:] + "1"
	}
	return s[1:] + "0"
}

// StateIndex maps every admissible history, plus Out, to a matrix row. It depends only
// on (hits, window) and is read-only after BuildStates, so one index can be shared by
// any number of concurrent evaluations.
type StateIndex struct {
	window int
	hits   int
	states []State
	index  map[State]int
}

// BuildStates enumerates all 2^window histories and keeps those with at least hits
// ones. The all-ones history is placed first; the others follow in enumeration order,
// where bit j of the enumeration value is position j of the history.
func BuildStates(hits, window int) (*StateIndex, error) {
	if window < 1 || window > MaxWindow {
		return nil, utils.ConfigErrorf("window must be in [1, %d], got %d", MaxWindow, window)
	}
	if hits < 0 || hits > window {
		return nil, utils.ConfigErrorf("hits must be in [0, %d], got %d", window, hits)
	}

	full := uint(1)<<window - 1
	idx := &StateIndex{
		window: window,
		hits:   hits,
		states: make([]State, 0, 2+(1<<window)),
		index:  make(map[State]int, 2+(1<<window)),
	}
	idx.add(State(strings.Repeat("1", window)))

	var sb strings.Builder
	for v := uint(0); v < full; v++ {
		if bits.OnesCount(v) < hits {
			continue
		}
		sb.Reset()
		for j := 0; j < window; j++ {
			if v>>j&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		idx.add(State(sb.String()))
	}
	idx.add(Out)
	return idx, nil
}

func (x *StateIndex) add(s State) {
	x.index[s] = len(x.states)
	x.states = append(x.states, s)
}

func (x *StateIndex) Window() int { return x.window }
func (x *StateIndex) Hits() int   { return x.hits }

// Len is the number of states including Out.
func (x *StateIndex) Len() int { return len(x.states) }

// Start is the index of the all-ones history.
func (x *StateIndex) Start() int { return 0 }

// Out is the index of the absorbing state.
func (x *StateIndex) Out() int { return len(x.states) - 1 }

func (x *StateIndex) Index(s State) (int, bool) {
	i, ok := x.index[s]
	return i, ok
}

func (x *StateIndex) State(i int) State { return x.states[i] }

// States returns a copy of the states in index order.
func (x *StateIndex) States() []State {
	return append([]State(nil), x.states...)
}

// Successor resolves the row a state moves to after one outcome. A miss that leaves too
// few hits lands on Out; a hit must always stay admissible, and an unmapped hit
// successor is reported as an internal error.
func (x *StateIndex) Successor(s State, hit bool) (int, error) {
	if s == Out {
		return x.Out(), nil
	}
	if _, ok := x.index[s]; !ok {
		return 0, utils.InternalErrorf("state %q is not in the index for window=%d hits=%d", s, x.window, x.hits)
	}
	next := s.Next(hit)
	if i, ok := x.index[next]; ok {
		return i, nil
	}
	if hit {
		return 0, utils.InternalErrorf("hit successor %q of %q is not admissible", next, s)
	}
	return x.Out(), nil
}
