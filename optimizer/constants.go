// Package optimizer searches per-phase acceptance probabilities for the operating point
// with the smallest provisioned load quantile that still keeps the window chain out of
// its violation state with the requested confidence.
package optimizer

import "time"

// Search interval for every phase probability. Operating points below one half are
// not considered useful.
const (
	DefaultLowerBound = 0.5
	DefaultUpperBound = 0.9999
)

// Grid density per dimension. It drops with dimensionality to bound the total number
// of chain evaluations.
const (
	DefaultPointsLowDim  = 1000 // 1 and 2 phases
	DefaultPointsHighDim = 25   // 4 phases
)

const (
	DefaultWorkers          = 8
	DefaultProgressInterval = 2 * time.Second

	// MaxEvaluations caps points^phases for a single search.
	MaxEvaluations = 50_000_000

	// chunkSize is the number of consecutive grid indices a worker claims at once.
	chunkSize = 256
)

// SupportedPhases are the phase counts the optimizer accepts.
var SupportedPhases = []int{1, 2, 4}
