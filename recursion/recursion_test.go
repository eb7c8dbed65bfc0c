// Package recursion_test exercises both drivers through the public API.
// Focus: Bellman consistency, driver agreement, sampling behaviour,
// failure propagation and persistent stores.
package recursion_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/sampling"
	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/store"
	"github.com/katalvlaran/sdp/transition"
	"github.com/katalvlaran/sdp/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

// stockProblem is a small lot-sizing problem on stock levels [-3, 5] with
// demand 0, 1 or 2, a fixed ordering charge and holding/penalty costs.
func stockProblem(t testing.TB, horizon int) recursion.Problem {
	t.Helper()
	demand, err := transition.NewCategorical([]int{0, 1, 2}, []float64{0.3, 0.4, 0.3})
	require.NoError(t, err)

	return recursion.Problem{
		Horizon:    horizon,
		Boundaries: state.Interval(-3, 5),
		Actions: func(s *state.State) ([]state.Action, error) {
			var out []state.Action
			for q := 0; s.X()[0]+q <= 5; q++ {
				out = append(out, state.NewAction(q))
			}
			return out, nil
		},
		Idempotent: func(*state.State) state.Action { return state.NewAction(0) },
		Immediate: func(s *state.State, a state.Action, f *state.State) float64 {
			q, x := float64(a.X[0]), float64(f.X()[0])
			c := 0.5*q + math.Max(x, 0) + 3*math.Max(-x, 0)
			if q > 0 {
				c += 2
			}
			return c
		},
		Distribution: transition.Stationary(transition.Univariate{D: demand}),
	}
}

func options(workers int) recursion.Options {
	opts := recursion.DefaultOptions()
	opts.Workers = workers
	return opts
}

func TestSolveBackward_BellmanConsistency(t *testing.T) {
	p := stockProblem(t, 3)
	sol, err := recursion.SolveBackward(context.Background(), p, options(4))
	require.NoError(t, err)
	require.Equal(t, 3, sol.Horizon())

	for period := 0; period < sol.Horizon(); period++ {
		states, err := sol.States(period)
		require.NoError(t, err)
		require.Len(t, states, 9, "full grid")
		for _, s := range states {
			actions, err := s.Actions()
			require.NoError(t, err)

			best := math.Inf(1)
			for _, a := range actions {
				succ, err := sol.Successors(s.Descriptor(), a)
				require.NoError(t, err)
				ev := 0.0
				for _, tr := range succ {
					v, err := sol.OptimalValue(tr.State.Descriptor())
					require.NoError(t, err)
					ev += tr.P * (p.Immediate(s, a, tr.State) + v)
				}
				memo, err := sol.ExpectedValue(s.Descriptor(), a)
				require.NoError(t, err)
				assert.InDelta(t, ev, memo, eps)
				best = math.Min(best, ev)
			}

			got, err := sol.OptimalValue(s.Descriptor())
			require.NoError(t, err)
			assert.InDelta(t, best, got, eps, "period %d state %v", period, s.X())

			a, err := sol.OptimalAction(s.Descriptor())
			require.NoError(t, err)
			ev, err := sol.ExpectedValue(s.Descriptor(), a)
			require.NoError(t, err)
			assert.InDelta(t, got, ev, eps)
		}
	}

	terminal, err := sol.States(3)
	require.NoError(t, err)
	for _, s := range terminal {
		v, err := sol.OptimalValue(s.Descriptor())
		require.NoError(t, err)
		assert.Zero(t, v)
	}

	st := sol.Stats()
	assert.Equal(t, recursion.DriverBackward, st.Driver)
	assert.EqualValues(t, 4*9, st.Generated)
	assert.EqualValues(t, 3*9, st.Evaluated)
	assert.Len(t, st.Periods, 3)
	assert.NotEqual(t, [16]byte{}, [16]byte(st.RunID))
}

func TestSolveBackward_Deterministic(t *testing.T) {
	p := stockProblem(t, 4)
	first, err := recursion.SolveBackward(context.Background(), p, options(1))
	require.NoError(t, err)
	second, err := recursion.SolveBackward(context.Background(), p, options(8))
	require.NoError(t, err)

	for period := 0; period < 4; period++ {
		states, err := first.States(period)
		require.NoError(t, err)
		for _, s := range states {
			e1, err := first.Optimal(s.Descriptor())
			require.NoError(t, err)
			e2, err := second.Optimal(s.Descriptor())
			require.NoError(t, err)
			assert.Equal(t, e1, e2)
		}
	}
}

func TestSolveForward_MatchesBackwardAtRoot(t *testing.T) {
	p := stockProblem(t, 4)
	back, err := recursion.SolveBackward(context.Background(), p, options(2))
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		for _, x := range []int{-2, 0, 3} {
			root := state.Descriptor{Period: 0, X: state.Vector{x}}
			fwd, err := recursion.SolveForward(context.Background(), p, root.X, options(workers))
			require.NoError(t, err)

			want, err := back.OptimalValue(root)
			require.NoError(t, err)
			got, err := fwd.OptimalValue(root)
			require.NoError(t, err)
			assert.InDelta(t, want, got, eps, "root %d workers %d", x, workers)

			wantA, _ := back.OptimalAction(root)
			gotA, _ := fwd.OptimalAction(root)
			assert.Equal(t, wantA, gotA)

			st := fwd.Stats()
			assert.Equal(t, recursion.DriverForward, st.Driver)
			assert.Positive(t, st.Reused, "shared successors are reused")
			assert.LessOrEqual(t, st.Generated, int64(9*5))
			assert.Nil(t, st.Periods)
		}
	}
}

func TestSolveForward_SolvesEachStateOnce(t *testing.T) {
	p := stockProblem(t, 3)
	fwd, err := recursion.SolveForward(context.Background(), p, state.Vector{0}, options(4))
	require.NoError(t, err)

	st := fwd.Stats()
	decision := int64(0)
	for period := 0; period < 3; period++ {
		states, err := fwd.States(period)
		require.NoError(t, err)
		decision += int64(len(states))
	}
	assert.Equal(t, decision, st.Evaluated, "every reachable decision state evaluated once")
}

func TestSolveBackward_SampledStates(t *testing.T) {
	p := stockProblem(t, 3)
	opts := options(2)
	opts.StateSampling = sampling.Jensens(3, 1)

	b, err := recursion.NewBackward(p, opts)
	require.NoError(t, err)
	assert.Equal(t, recursion.Idle, b.Phase())
	assert.Nil(t, b.Solution())

	require.NoError(t, b.Run(context.Background()))
	assert.Equal(t, recursion.Done, b.Phase())
	sol := b.Solution()
	require.NotNil(t, sol)

	states, err := sol.States(0)
	require.NoError(t, err)
	xs := make([]int, len(states))
	for i, s := range states {
		xs[i] = s.X()[0]
	}
	assert.Equal(t, []int{-2, 1, 4}, xs, "stratum midpoints of the grid")
	assert.EqualValues(t, 3*4, sol.Stats().Generated)

	_, err = sol.OptimalValue(state.Descriptor{Period: 0, X: state.Vector{0}})
	assert.ErrorIs(t, err, value.ErrMissingEntry)
	_, err = sol.ExpectedValue(state.Descriptor{Period: 0, X: state.Vector{0}}, state.NewAction(0))
	assert.ErrorIs(t, err, recursion.ErrUnknownState)

	assert.ErrorIs(t, b.Run(context.Background()), recursion.ErrAlreadyRun)
}

func TestSolve_FullSizeScenarioSamplingIsExact(t *testing.T) {
	p := stockProblem(t, 3)
	exact, err := recursion.SolveBackward(context.Background(), p, options(2))
	require.NoError(t, err)

	opts := options(2)
	opts.ScenarioSampling = sampling.Jensens(3, 1)
	sampled, err := recursion.SolveBackward(context.Background(), p, opts)
	require.NoError(t, err)

	root := state.Descriptor{Period: 0, X: state.Vector{0}}
	want, _ := exact.OptimalValue(root)
	got, _ := sampled.OptimalValue(root)
	assert.InDelta(t, want, got, eps)
}

func TestSolve_PropagatesFailures(t *testing.T) {
	boom := errors.New("generator exploded")
	p := stockProblem(t, 3)
	inner := p.Actions
	p.Actions = func(s *state.State) ([]state.Action, error) {
		if s.Period() == 1 && s.X()[0] == 2 {
			return nil, boom
		}
		return inner(s)
	}

	b, err := recursion.NewBackward(p, options(4))
	require.NoError(t, err)
	err = b.Run(context.Background())
	require.ErrorIs(t, err, boom)
	var located *state.Error
	require.ErrorAs(t, err, &located)
	assert.Equal(t, 1, located.Period)
	assert.Equal(t, recursion.Failed, b.Phase())
	assert.Nil(t, b.Solution())

	_, err = recursion.SolveForward(context.Background(), p, state.Vector{0}, options(4))
	assert.ErrorIs(t, err, boom)
}

func TestSolve_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := recursion.SolveBackward(ctx, stockProblem(t, 3), options(2))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = recursion.SolveForward(ctx, stockProblem(t, 3), state.Vector{0}, options(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBackward_Validation(t *testing.T) {
	p := stockProblem(t, 3)

	bad := p
	bad.Horizon = 0
	_, err := recursion.NewBackward(bad, options(1))
	assert.ErrorIs(t, err, recursion.ErrBadHorizon)

	bad = p
	bad.Immediate = nil
	_, err = recursion.NewBackward(bad, options(1))
	assert.ErrorIs(t, err, recursion.ErrNilCallback)

	bad = p
	bad.Boundaries = state.Interval(3, 1)
	_, err = recursion.NewBackward(bad, options(1))
	assert.ErrorIs(t, err, state.ErrBadBoundaries)

	opts := options(1)
	opts.StateSampling = sampling.Jensens(10, 1)
	_, err = recursion.NewBackward(p, opts)
	assert.ErrorIs(t, err, sampling.ErrSampleExceedsPopulation)

	opts = options(-1)
	_, err = recursion.NewBackward(p, opts)
	assert.ErrorIs(t, err, recursion.ErrBadWorkers)

	opts = options(1)
	opts.Discount = -1
	_, err = recursion.NewBackward(p, opts)
	assert.ErrorIs(t, err, value.ErrBadDiscount)

	opts = options(1)
	opts.ScenarioSampling = sampling.Config{Scheme: sampling.Stratified}
	_, err = recursion.NewBackward(p, opts)
	assert.ErrorIs(t, err, sampling.ErrNonPositiveSample)

	_, err = recursion.SolveForward(context.Background(), p, state.Vector{9}, options(1))
	assert.ErrorIs(t, err, state.ErrOutOfBounds)
}

func TestSolveBackward_SQLiteStore(t *testing.T) {
	st, err := store.Open(store.Config{Backend: store.SQLite, InMemory: true})
	require.NoError(t, err)
	defer st.Close()

	opts := options(4)
	opts.Store = st
	sol, err := recursion.SolveBackward(context.Background(), stockProblem(t, 2), opts)
	require.NoError(t, err)
	ref, err := recursion.SolveBackward(context.Background(), stockProblem(t, 2), options(4))
	require.NoError(t, err)

	root := state.Descriptor{X: state.Vector{0}}
	want, _ := ref.OptimalValue(root)
	got, err := sol.OptimalValue(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSolve_ReopenedStoreIsRejectedUnlessTruncated(t *testing.T) {
	cfg := store.Config{Backend: store.SQLite, Path: filepath.Join(t.TempDir(), "values.db")}

	st, err := store.Open(cfg)
	require.NoError(t, err)
	opts := options(2)
	opts.Store = st
	_, err = recursion.SolveBackward(context.Background(), stockProblem(t, 2), opts)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Same grid and keys, a thousandfold immediate cost.
	costly := stockProblem(t, 2)
	base := costly.Immediate
	costly.Immediate = func(s *state.State, a state.Action, f *state.State) float64 {
		return 1000 * base(s, a, f)
	}

	st, err = store.Open(cfg)
	require.NoError(t, err)
	opts.Store = st
	_, err = recursion.SolveBackward(context.Background(), costly, opts)
	assert.ErrorIs(t, err, recursion.ErrStoreNotEmpty)
	_, err = recursion.SolveForward(context.Background(), costly, state.Vector{0}, opts)
	assert.ErrorIs(t, err, recursion.ErrStoreNotEmpty)
	require.NoError(t, st.Close())

	cfg.Truncate = true
	st, err = store.Open(cfg)
	require.NoError(t, err)
	defer st.Close()
	opts.Store = st
	sol, err := recursion.SolveForward(context.Background(), costly, state.Vector{0}, opts)
	require.NoError(t, err)

	ref, err := recursion.SolveForward(context.Background(), costly, state.Vector{0}, options(2))
	require.NoError(t, err)
	root := state.Descriptor{X: state.Vector{0}}
	want, _ := ref.OptimalValue(root)
	got, err := sol.OptimalValue(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSolveForward_JensenGapShrinksUnderRefinement(t *testing.T) {
	// Uniform demand on 0..26 with a cost convex in demand. Strata of 27/k
	// codes are nested for k = 1, 3, 9, 27 and their midpoints are the
	// stratum means, so each refinement tightens the lower bound.
	values := make([]int, 27)
	probs := make([]float64, 27)
	for i := range values {
		values[i], probs[i] = i, 1
	}
	demand, err := transition.NewCategorical(values, probs)
	require.NoError(t, err)
	p := recursion.Problem{
		Horizon:    1,
		Boundaries: state.Interval(-30, 60),
		Actions: func(s *state.State) ([]state.Action, error) {
			var out []state.Action
			for q := 0; s.X()[0]+q <= 60; q++ {
				out = append(out, state.NewAction(q))
			}
			return out, nil
		},
		Immediate: func(s *state.State, a state.Action, f *state.State) float64 {
			q, x := float64(a.X[0]), float64(f.X()[0])
			c := 0.5*q + math.Max(x, 0) + 4*math.Max(-x, 0)
			if q > 0 {
				c += 3
			}
			return c
		},
		Distribution: transition.Stationary(transition.Univariate{D: demand}),
	}
	root := state.Descriptor{X: state.Vector{0}}

	exactSol, err := recursion.SolveForward(context.Background(), p, root.X, options(1))
	require.NoError(t, err)
	exact, err := exactSol.OptimalValue(root)
	require.NoError(t, err)
	assert.InDelta(t, 71.0/3, exact, eps)

	prev := math.Inf(1)
	for _, k := range []int{1, 3, 9, 27} {
		opts := options(1)
		opts.ScenarioSampling = sampling.Jensens(k, 1)
		sol, err := recursion.SolveForward(context.Background(), p, root.X, opts)
		require.NoError(t, err)
		got, err := sol.OptimalValue(root)
		require.NoError(t, err)

		gap := exact - got
		assert.GreaterOrEqual(t, gap, -eps, "k=%d stays a lower bound", k)
		assert.LessOrEqual(t, gap, prev+eps, "k=%d", k)
		prev = gap
	}
	assert.InDelta(t, 0, prev, eps, "full size is exact")
}
