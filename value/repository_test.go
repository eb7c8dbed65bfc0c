package value_test

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/store"
	"github.com/katalvlaran/sdp/transition"
	"github.com/katalvlaran/sdp/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a one-decision stock problem on [0, 2] with demand 0 or 1.
type fixture struct {
	h     *state.Horizon
	model *transition.Model
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b := state.Interval(0, 2)
	h, err := state.NewHorizon(1, state.Config{
		Boundaries: b,
		Actions: func(s *state.State) ([]state.Action, error) {
			var out []state.Action
			for q := 0; s.X()[0]+q <= 2; q++ {
				out = append(out, state.NewAction(q))
			}
			return out, nil
		},
		Idempotent: func(*state.State) state.Action { return state.NewAction(0) },
	})
	require.NoError(t, err)
	demand, err := transition.NewCategorical([]int{0, 1}, []float64{0.5, 0.5})
	require.NoError(t, err)
	m, err := transition.NewModel(transition.Stationary(transition.Univariate{D: demand}), nil, nil, transition.DefaultOptions())
	require.NoError(t, err)

	return fixture{h: h, model: m}
}

func (f fixture) lookup(d state.Descriptor) (*state.State, bool, error) {
	s, ok := f.h.Lookup(d)
	return s, ok, nil
}

func (f fixture) state(t *testing.T, period, x int) *state.State {
	t.Helper()
	s, _, err := f.h.GetOrCreate(state.Descriptor{Period: period, X: state.Vector{x}})
	require.NoError(t, err)
	return s
}

// terminals assigns V(1, x) = x.
func (f fixture) terminals(t *testing.T, r *value.Repository) {
	t.Helper()
	for x := 0; x <= 2; x++ {
		_, err := r.SetTerminal(f.state(t, 1, x))
		require.NoError(t, err)
	}
}

func orderingCost(s *state.State, a state.Action, f *state.State) float64 {
	return 3*float64(a.X[0]) + float64(f.X()[0])
}

func stock(s *state.State) float64 { return float64(s.X()[0]) }

func TestRepository_BellmanOperator(t *testing.T) {
	cases := []struct {
		dir    value.Direction
		value  float64
		action int
	}{
		// a=0: 0.5*(1+0.9*1) + 0.5*(0+0) = 0.95; a=1: 3 + 0.5*(2+1.8) + 0.5*(1+0.9) = 5.85
		{value.Minimize, 0.95, 0},
		{value.Maximize, 5.85, 1},
	}
	for _, tc := range cases {
		t.Run(tc.dir.String(), func(t *testing.T) {
			f := newFixture(t)
			r, err := value.NewRepository(value.Config{
				Model: f.model, Immediate: orderingCost, Terminal: stock,
				Discount: 0.9, Direction: tc.dir,
			})
			require.NoError(t, err)
			f.terminals(t, r)

			s := f.state(t, 0, 1)
			e, err := r.Optimize(s, f.lookup, r.Recorded())
			require.NoError(t, err)
			assert.InDelta(t, tc.value, e.Value, 1e-12)
			assert.Equal(t, state.NewAction(tc.action), e.Action)

			require.NoError(t, r.SetOptimal(s, e))
			v, err := r.OptimalValue(s.Descriptor())
			require.NoError(t, err)
			assert.InDelta(t, tc.value, v, 1e-12)
			a, err := r.OptimalAction(s.Descriptor())
			require.NoError(t, err)
			assert.Equal(t, state.NewAction(tc.action), a)
		})
	}
}

func TestRepository_FirstActionWinsTies(t *testing.T) {
	for _, dir := range []value.Direction{value.Minimize, value.Maximize} {
		f := newFixture(t)
		r, err := value.NewRepository(value.Config{
			Model:     f.model,
			Immediate: func(*state.State, state.Action, *state.State) float64 { return 1 },
			Discount:  1, Direction: dir,
		})
		require.NoError(t, err)
		f.terminals(t, r)

		e, err := r.Optimize(f.state(t, 0, 0), f.lookup, r.Recorded())
		require.NoError(t, err)
		assert.Equal(t, state.NewAction(0), e.Action, dir.String())
		assert.InDelta(t, 1.0, e.Value, 1e-12)
	}
}

func TestRepository_ExpectedValueIsMemoized(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	r, err := value.NewRepository(value.Config{
		Model: f.model,
		Immediate: func(s *state.State, a state.Action, n *state.State) float64 {
			calls.Add(1)
			return orderingCost(s, a, n)
		},
		Discount: 1,
	})
	require.NoError(t, err)
	f.terminals(t, r)

	s := f.state(t, 0, 1)
	first, err := r.ExpectedValue(s, state.NewAction(1), f.lookup, r.Recorded())
	require.NoError(t, err)
	n := calls.Load()
	second, err := r.ExpectedValue(s, state.NewAction(1), f.lookup, r.Recorded())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, n, calls.Load(), "cached value must not re-evaluate")

	cached, ok, err := r.Expected(s.Descriptor(), state.NewAction(1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, cached)
	_, ok, err = r.Expected(s.Descriptor(), state.NewAction(0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_EntriesAreWriteOnce(t *testing.T) {
	f := newFixture(t)
	r, err := value.NewRepository(value.Config{Model: f.model, Immediate: orderingCost, Discount: 1})
	require.NoError(t, err)

	s := f.state(t, 0, 2)
	_, err = r.Optimal(s.Descriptor())
	require.ErrorIs(t, err, value.ErrMissingEntry)
	var located *state.Error
	require.ErrorAs(t, err, &located)
	assert.Equal(t, 0, located.Period)
	assert.Equal(t, state.Vector{2}, located.X)

	require.NoError(t, r.SetOptimal(s, value.Entry{Value: 4, Action: state.NewAction(0)}))
	err = r.SetOptimal(s, value.Entry{Value: 1, Action: state.NewAction(0)})
	assert.ErrorIs(t, err, value.ErrAlreadyAssigned)
	v, err := r.OptimalValue(s.Descriptor())
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestRepository_MissingContinuationFails(t *testing.T) {
	f := newFixture(t)
	r, err := value.NewRepository(value.Config{Model: f.model, Immediate: orderingCost, Discount: 1})
	require.NoError(t, err)
	f.state(t, 1, 0)
	f.state(t, 1, 1)

	_, err = r.Optimize(f.state(t, 0, 1), f.lookup, r.Recorded())
	assert.ErrorIs(t, err, value.ErrMissingEntry)
}

func TestRepository_SetTerminalDefaults(t *testing.T) {
	f := newFixture(t)
	r, err := value.NewRepository(value.Config{Model: f.model, Immediate: orderingCost})
	require.NoError(t, err)

	e, err := r.SetTerminal(f.state(t, 1, 2))
	require.NoError(t, err)
	assert.Zero(t, e.Value)
	assert.Equal(t, state.NewAction(0), e.Action)
}

func TestRepository_PersistentBackend(t *testing.T) {
	f := newFixture(t)
	st, err := store.Open(store.Config{Backend: store.Badger, InMemory: true})
	require.NoError(t, err)
	defer st.Close()

	r, err := value.NewRepository(value.Config{
		Store: st, Model: f.model, Immediate: orderingCost, Terminal: stock, Discount: 0.9,
	})
	require.NoError(t, err)
	f.terminals(t, r)

	e, err := r.Optimize(f.state(t, 0, 1), f.lookup, r.Recorded())
	require.NoError(t, err)
	assert.InDelta(t, 0.95, e.Value, 1e-12)
	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, 3+2, n, "three terminal optima and two expected values")
}

func TestNewRepository_Validation(t *testing.T) {
	f := newFixture(t)
	for _, g := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		_, err := value.NewRepository(value.Config{Model: f.model, Immediate: orderingCost, Discount: g})
		assert.ErrorIs(t, err, value.ErrBadDiscount)
	}
	_, err := value.NewRepository(value.Config{Immediate: orderingCost})
	assert.ErrorIs(t, err, value.ErrNilDependency)
	_, err = value.NewRepository(value.Config{Model: f.model, Immediate: orderingCost, Direction: 7})
	assert.ErrorIs(t, err, value.ErrUnknownDirection)
}

func TestParseDirection(t *testing.T) {
	for name, want := range map[string]value.Direction{
		"": value.Minimize, "min": value.Minimize, "Minimize": value.Minimize,
		"max": value.Maximize, " maximize ": value.Maximize,
	} {
		got, err := value.ParseDirection(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := value.ParseDirection("sideways")
	assert.ErrorIs(t, err, value.ErrUnknownDirection)
	assert.True(t, value.Maximize.Better(2, 1))
	assert.False(t, value.Minimize.Better(1, 1))
}
