// SPDX-License-Identifier: MIT

package sampling

import (
	"fmt"
	"math/rand"
	"sort"
)

// Plan selects k indices out of the population [0, n) with the given scheme.
//
// Contract:
//   - n >= 1 and k >= 1, otherwise ErrNonPositiveSample.
//   - k <= n, otherwise ErrSampleExceedsPopulation.
//   - None ignores k and returns the whole population.
//   - The result is sorted by Index, duplicate-free, and len(result) <= k.
//   - rng may be nil; a DefaultSeed stream is used then. Jensen never draws.
//
// Complexity: O(k log k) time, O(k) space (O(n) for None).
func Plan(scheme Scheme, n, k int, rng *rand.Rand) ([]Pick, error) {
	if n <= 0 || k <= 0 {
		return nil, ErrNonPositiveSample
	}
	if scheme != None && k > n {
		return nil, fmt.Errorf("%w: k=%d n=%d", ErrSampleExceedsPopulation, k, n)
	}
	if rng == nil && (scheme == SimpleRandom || scheme == Stratified) {
		rng = NewRand(0)
	}

	var picks []Pick
	switch scheme {
	case None:
		picks = make([]Pick, n)
		for i := 0; i < n; i++ {
			picks[i] = Pick{Index: i, Lo: i, Hi: i + 1}
		}

		return picks, nil
	case SimpleRandom:
		picks = simpleRandom(n, k, rng)
	case Stratified:
		picks = strata(n, k, func(lo, hi int) int { return lo + rng.Intn(hi-lo) })
	case Jensen:
		picks = strata(n, k, func(lo, hi int) int { return lo + (hi-lo)/2 })
	default:
		return nil, ErrUnsupportedScheme
	}

	return dedupe(picks), nil
}

// simpleRandom implements Floyd's algorithm: exactly k distinct indices,
// each k-subset equally likely, without materializing the population.
func simpleRandom(n, k int, rng *rand.Rand) []Pick {
	seen := make(map[int]struct{}, k)
	picks := make([]Pick, 0, k)
	for j := n - k; j < n; j++ {
		t := rng.Intn(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		picks = append(picks, Pick{Index: t, Lo: t, Hi: t + 1})
	}
	sort.Slice(picks, func(a, b int) bool { return picks[a].Index < picks[b].Index })

	return picks
}

// strata cuts [0, n) into k equal-width strata and lets choose pick one
// representative inside each [lo, hi). With k <= n every stratum is non-empty.
func strata(n, k int, choose func(lo, hi int) int) []Pick {
	picks := make([]Pick, 0, k)
	for i := 0; i < k; i++ {
		lo := int(int64(i) * int64(n) / int64(k))
		hi := int(int64(i+1) * int64(n) / int64(k))
		if hi <= lo {
			continue
		}
		picks = append(picks, Pick{Index: choose(lo, hi), Lo: lo, Hi: hi})
	}

	return picks
}

// dedupe drops repeated indices from a sorted plan, keeping the first stratum.
func dedupe(picks []Pick) []Pick {
	if len(picks) < 2 {
		return picks
	}
	out := picks[:1]
	for _, p := range picks[1:] {
		if p.Index == out[len(out)-1].Index {
			continue
		}
		out = append(out, p)
	}

	return out
}
