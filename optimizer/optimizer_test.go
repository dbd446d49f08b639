package optimizer

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shengjiex98/pwcet-safety/dtmc"
	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

func newStates(t *testing.T, hits, window int) *dtmc.StateIndex {
	t.Helper()
	idx, err := dtmc.BuildStates(hits, window)
	require.NoError(t, err)
	return idx
}

func TestGrid_Values(t *testing.T) {
	g := Grid{Lower: 0.5, Upper: 0.9999, Points: 1000}
	v := g.Values()
	require.Len(t, v, 1000)
	assert.Equal(t, 0.5, v[0])
	assert.InDelta(t, 0.9999, v[999], 1e-12)
	for i := 1; i < len(v); i++ {
		assert.Greater(t, v[i], v[i-1])
	}

	assert.Equal(t, []float64{0.7}, Grid{Lower: 0.7, Upper: 0.7, Points: 1}.Values())
}

func TestGrid_Validate(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
	}{
		{"upper at one", Grid{Lower: 0.5, Upper: 1, Points: 10}},
		{"negative lower", Grid{Lower: -0.1, Upper: 0.9, Points: 10}},
		{"inverted", Grid{Lower: 0.9, Upper: 0.5, Points: 10}},
		{"no points", Grid{Lower: 0.5, Upper: 0.9, Points: 0}},
		{"flat with many points", Grid{Lower: 0.5, Upper: 0.5, Points: 3}},
		{"nan", Grid{Lower: math.NaN(), Upper: 0.9, Points: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, utils.IsConfigurationError(tt.grid.Validate()))
		})
	}
	assert.NoError(t, DefaultGrid(1).Validate())
	assert.NoError(t, DefaultGrid(4).Validate())
}

func TestGrid_Size(t *testing.T) {
	n, err := DefaultGrid(2).Size(2)
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, n)

	n, err = DefaultGrid(4).Size(4)
	require.NoError(t, err)
	assert.Equal(t, 390_625, n)

	_, err = Grid{Lower: 0.5, Upper: 0.9, Points: 1000}.Size(4)
	assert.True(t, utils.IsConfigurationError(err))
}

func TestTuple_RowMajor(t *testing.T) {
	values := []float64{0.5, 0.6, 0.7}
	buf := make([]float64, 2)
	assert.Equal(t, []float64{0.5, 0.5}, tuple(values, 2, 0, buf))
	assert.Equal(t, []float64{0.5, 0.7}, tuple(values, 2, 2, buf))
	assert.Equal(t, []float64{0.6, 0.5}, tuple(values, 2, 3, buf))
	assert.Equal(t, []float64{0.7, 0.7}, tuple(values, 2, 8, buf))
}

func TestNewOptimizer_Invalid(t *testing.T) {
	states := newStates(t, 2, 3)
	_, err := NewOptimizer(nil, 10, 0.9, utilization.Pareto)
	assert.True(t, utils.IsConfigurationError(err))
	_, err = NewOptimizer(states, 10, 0.9, nil)
	assert.True(t, utils.IsConfigurationError(err))
	_, err = NewOptimizer(states, 0, 0.9, utilization.Pareto)
	assert.True(t, utils.IsConfigurationError(err))
	for _, c := range []float64{0, 1, -0.5, math.NaN()} {
		_, err = NewOptimizer(states, 10, c, utilization.Pareto)
		assert.True(t, utils.IsConfigurationError(err), "confidence %v", c)
	}
}

func TestOptimize1D_MatchesExhaustiveScan(t *testing.T) {
	states := newStates(t, 2, 3)
	grid := Grid{Lower: 0.5, Upper: 0.9999, Points: 1000}
	o, err := NewOptimizer(states, 2, 0.98, utilization.Uniform, WithGrid(1, grid), WithWorkers(4))
	require.NoError(t, err)

	res, err := o.Optimize1D()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	// the first grid point that clears the target is the cheapest one
	var want float64
	for _, p := range grid.Values() {
		c, err := dtmc.EvaluatePhases(states, []float64{p}, 2)
		require.NoError(t, err)
		if c > 0.98 {
			want = p
			break
		}
	}
	require.NotZero(t, want)
	assert.Equal(t, []float64{want}, res.Params)
	assert.InDelta(t, 10*want, res.Utilization, 1e-12)
	assert.Greater(t, res.Confidence, 0.98)
	assert.InDelta(t, 1-math.Sqrt(0.02), want, grid.Upper-grid.Values()[998])
	assert.Equal(t, 1000, res.Evaluations)
	assert.Equal(t, 1, res.Phases)
}

func TestOptimize1D_Infeasible(t *testing.T) {
	// every miss violates, so the confidence is p^horizon; 0.9999^200 < 0.99
	states := newStates(t, 3, 3)
	logger := utils.NewPermissiveMockLogger()
	o, err := NewOptimizer(states, 200, 0.99, utilization.Pareto,
		WithGridPoints(50), WithLogger(logger))
	require.NoError(t, err)

	res, err := o.Optimize1D()
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.True(t, math.IsInf(res.Utilization, 1))
	assert.Equal(t, []float64{DefaultUpperBound}, res.Params)
	assert.InDelta(t, math.Pow(DefaultUpperBound, 200), res.Confidence, 1e-9)
	assert.Contains(t, logger.Logged("warn"), "no feasible operating point")
	logger.AssertCalled(t, "Warn", "no feasible operating point", mock.Anything)
}

func TestOptimize_InfeasibleSameContractForEveryArity(t *testing.T) {
	states := newStates(t, 3, 3)
	o, err := NewOptimizer(states, 200, 0.99, utilization.Uniform, WithGridPoints(6))
	require.NoError(t, err)

	for _, phases := range SupportedPhases {
		res, err := o.Optimize(phases)
		require.NoError(t, err)
		assert.False(t, res.Feasible, "phases=%d", phases)
		assert.True(t, math.IsInf(res.Utilization, 1), "phases=%d", phases)
		assert.Len(t, res.Params, phases)
	}
}

func TestOptimize2D_NoWorseThan1D(t *testing.T) {
	states := newStates(t, 3, 5)
	o, err := NewOptimizer(states, 100, 0.99, utilization.Pareto, WithGridPoints(60))
	require.NoError(t, err)

	one, err := o.Optimize1D()
	require.NoError(t, err)
	two, err := o.Optimize2D()
	require.NoError(t, err)

	require.True(t, one.Feasible)
	require.True(t, two.Feasible)
	// the 2-D grid contains every (p, p) pair of the 1-D grid
	assert.LessOrEqual(t, two.Utilization, one.Utilization+1e-12)
	assert.Len(t, two.Params, 2)
}

func TestOptimize4D_SmallGrid(t *testing.T) {
	states := newStates(t, 2, 4)
	o, err := NewOptimizer(states, 20, 0.95, utilization.Normal, WithGridPoints(5))
	require.NoError(t, err)

	res, err := o.Optimize4D()
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.Len(t, res.Params, 4)
	assert.Equal(t, 625, res.Evaluations)

	c, err := dtmc.EvaluatePhases(states, res.Params, 20)
	require.NoError(t, err)
	assert.Equal(t, c, res.Confidence)
	assert.Greater(t, c, 0.95)
}

func TestOptimize_WorkerCountDoesNotChangeResult(t *testing.T) {
	states := newStates(t, 2, 4)
	var results []Result
	for _, workers := range []int{1, 3, 16} {
		o, err := NewOptimizer(states, 40, 0.999, utilization.Pareto,
			WithGridPoints(40), WithWorkers(workers))
		require.NoError(t, err)
		res, err := o.Optimize2D()
		require.NoError(t, err)
		results = append(results, res)
	}
	for _, r := range results[1:] {
		assert.Equal(t, results[0].Params, r.Params)
		assert.Equal(t, results[0].Utilization, r.Utilization)
		assert.Equal(t, results[0].Confidence, r.Confidence)
	}
}

func TestOptimize_ConfigurationErrors(t *testing.T) {
	states := newStates(t, 2, 3)
	o, err := NewOptimizer(states, 6, 0.9, utilization.Pareto, WithGridPoints(4))
	require.NoError(t, err)

	_, err = o.Optimize(3)
	assert.True(t, utils.IsConfigurationError(err), "unsupported phase count")

	_, err = o.Optimize4D()
	assert.True(t, utils.IsConfigurationError(err), "6 is not a multiple of 4")

	odd, err := NewOptimizer(states, 7, 0.9, utilization.Pareto, WithGridPoints(4))
	require.NoError(t, err)
	_, err = odd.Optimize2D()
	assert.True(t, utils.IsConfigurationError(err))

	bad, err := NewOptimizer(states, 6, 0.9, utilization.Pareto, WithBounds(0.5, 1))
	require.NoError(t, err)
	_, err = bad.Optimize1D()
	assert.True(t, utils.IsConfigurationError(err))
}

type failingFunc struct{ above float64 }

func (f failingFunc) Utilization(probs ...float64) (float64, error) {
	for _, p := range probs {
		if p > f.above {
			return 0, utils.NumericErrorf("degenerate at %v", p)
		}
	}
	return utilization.Uniform.Utilization(probs...)
}

func TestOptimize_EvaluationErrorAbortsSearch(t *testing.T) {
	states := newStates(t, 2, 3)
	o, err := NewOptimizer(states, 10, 0.9, failingFunc{above: 0.8},
		WithGridPoints(2000), WithWorkers(4))
	require.NoError(t, err)

	res, err := o.Optimize1D()
	require.Error(t, err)
	assert.True(t, utils.IsNumericError(err))
	var typed *utils.Error
	assert.True(t, errors.As(err, &typed))
	assert.Equal(t, Result{}, res)
}

func TestOptimize_Progress(t *testing.T) {
	states := newStates(t, 2, 3)
	var mu sync.Mutex
	last, calls := 0, 0
	o, err := NewOptimizer(states, 10, 0.9, utilization.Uniform,
		WithGridPoints(100), WithWorkers(3),
		WithProgressInterval(0),
		WithProgress(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 10_000, total)
			last = max(last, done)
			calls++
		}))
	require.NoError(t, err)

	_, err = o.Optimize2D()
	require.NoError(t, err)
	assert.Equal(t, 10_000, last)
	assert.Equal(t, (10_000+chunkSize-1)/chunkSize, calls)
}

func TestOptimize_DebugTrace(t *testing.T) {
	dir := t.TempDir()
	dm := utils.NewDebugManager(utils.DebugOptions{Enabled: true, SaveToFile: true, OutputDir: dir}, nil)
	states := newStates(t, 3, 3)
	o, err := NewOptimizer(states, 200, 0.99, utilization.Pareto,
		WithGridPoints(10), WithDebugManager(dm))
	require.NoError(t, err)

	_, err = o.Optimize1D()
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "results.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"utilization":"+Inf"`)
	assert.Contains(t, string(b), `"feasible":false`)
}

func BenchmarkOptimize1D(b *testing.B) {
	states, err := dtmc.BuildStates(3, 5)
	if err != nil {
		b.Fatal(err)
	}
	o, err := NewOptimizer(states, 100, 0.99, utilization.Pareto, WithGridPoints(200))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := o.Optimize1D(); err != nil {
			b.Fatal(err)
		}
	}
}
