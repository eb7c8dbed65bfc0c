package sampling_test

import (
	"testing"

	"github.com/katalvlaran/sdp/sampling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indices extracts the Index field of every pick.
func indices(picks []sampling.Pick) []int {
	out := make([]int, len(picks))
	for i, p := range picks {
		out[i] = p.Index
	}

	return out
}

// assertPlanShape checks the invariants shared by all schemes.
func assertPlanShape(t *testing.T, picks []sampling.Pick, n, k int) {
	t.Helper()
	require.LessOrEqual(t, len(picks), k)
	seen := make(map[int]bool, len(picks))
	for i, p := range picks {
		assert.GreaterOrEqual(t, p.Index, 0)
		assert.Less(t, p.Index, n)
		assert.False(t, seen[p.Index], "duplicate index %d", p.Index)
		seen[p.Index] = true
		if i > 0 {
			assert.Greater(t, p.Index, picks[i-1].Index, "plan must be ascending")
		}
		assert.True(t, p.Lo <= p.Index && p.Index < p.Hi, "index outside its stratum")
	}
}

func TestPlan_Jensen_Midpoints(t *testing.T) {
	picks, err := sampling.Plan(sampling.Jensen, 10, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5, 7, 9}, indices(picks))
	assert.Equal(t, sampling.Pick{Index: 1, Lo: 0, Hi: 2}, picks[0])
	assertPlanShape(t, picks, 10, 5)
}

func TestPlan_Jensen_FullSizeIsIdentity(t *testing.T) {
	picks, err := sampling.Plan(sampling.Jensen, 7, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, indices(picks))
}

func TestPlan_Stratified_OnePerStratum(t *testing.T) {
	rng := sampling.NewRand(42)
	picks, err := sampling.Plan(sampling.Stratified, 100, 10, rng)
	require.NoError(t, err)
	require.Len(t, picks, 10)
	assertPlanShape(t, picks, 100, 10)
	for i, p := range picks {
		assert.Equal(t, i*10, p.Lo)
		assert.Equal(t, (i+1)*10, p.Hi)
	}
}

func TestPlan_SimpleRandom_DistinctAndDeterministic(t *testing.T) {
	a, err := sampling.Plan(sampling.SimpleRandom, 50, 20, sampling.NewRand(7))
	require.NoError(t, err)
	b, err := sampling.Plan(sampling.SimpleRandom, 50, 20, sampling.NewRand(7))
	require.NoError(t, err)
	require.Len(t, a, 20)
	assertPlanShape(t, a, 50, 20)
	assert.Equal(t, indices(a), indices(b), "same seed must give the same plan")
}

func TestPlan_SimpleRandom_WholePopulation(t *testing.T) {
	picks, err := sampling.Plan(sampling.SimpleRandom, 5, 5, sampling.NewRand(3))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices(picks))
}

func TestPlan_None_ReturnsEverything(t *testing.T) {
	picks, err := sampling.Plan(sampling.None, 4, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, indices(picks))
}

func TestPlan_Errors(t *testing.T) {
	_, err := sampling.Plan(sampling.Jensen, 5, 6, nil)
	assert.ErrorIs(t, err, sampling.ErrSampleExceedsPopulation)

	_, err = sampling.Plan(sampling.Stratified, 5, 0, nil)
	assert.ErrorIs(t, err, sampling.ErrNonPositiveSample)

	_, err = sampling.Plan(sampling.Jensen, 0, 1, nil)
	assert.ErrorIs(t, err, sampling.ErrNonPositiveSample)

	_, err = sampling.Plan(sampling.Scheme(99), 5, 2, nil)
	assert.ErrorIs(t, err, sampling.ErrUnsupportedScheme)
}
