package recursion

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/transition"
)

func coinProblem(t *testing.T) Problem {
	t.Helper()
	coin, err := transition.NewCategorical([]int{0, 1}, []float64{0.5, 0.5})
	require.NoError(t, err)

	return Problem{
		Horizon:    2,
		Boundaries: state.Interval(-2, 2),
		Actions: func(*state.State) ([]state.Action, error) {
			return []state.Action{state.NewAction(0), state.NewAction(1)}, nil
		},
		Immediate: func(_ *state.State, a state.Action, _ *state.State) float64 {
			return float64(a.X[0])
		},
		Distribution: transition.Stationary(transition.Univariate{D: coin}),
	}
}

func TestMetrics_CountBackwardRun(t *testing.T) {
	generated := testutil.ToFloat64(statesGenerated.WithLabelValues(DriverBackward))
	evaluated := testutil.ToFloat64(statesEvaluated.WithLabelValues(DriverBackward))
	ok := testutil.ToFloat64(runsTotal.WithLabelValues(DriverBackward, "ok"))

	sol, err := SolveBackward(context.Background(), coinProblem(t), DefaultOptions())
	require.NoError(t, err)

	st := sol.Stats()
	assert.EqualValues(t, 15, st.Generated)
	assert.EqualValues(t, 10, st.Evaluated)
	assert.Equal(t, generated+15, testutil.ToFloat64(statesGenerated.WithLabelValues(DriverBackward)))
	assert.Equal(t, evaluated+10, testutil.ToFloat64(statesEvaluated.WithLabelValues(DriverBackward)))
	assert.Equal(t, ok+1, testutil.ToFloat64(runsTotal.WithLabelValues(DriverBackward, "ok")))
}

func TestMetrics_CountFailedRun(t *testing.T) {
	failed := testutil.ToFloat64(runsTotal.WithLabelValues(DriverForward, "error"))

	_, err := SolveForward(context.Background(), coinProblem(t), state.Vector{7}, DefaultOptions())
	require.ErrorIs(t, err, state.ErrOutOfBounds)
	assert.Equal(t, failed+1, testutil.ToFloat64(runsTotal.WithLabelValues(DriverForward, "error")))
}
