// SPDX-License-Identifier: MIT

// Package sampling selects representative subsets of an index range when
// exhaustive enumeration of states, actions or random scenarios is too costly.
//
// Schemes:
//
//   - None: every index of the population is kept.
//   - SimpleRandom: k indices drawn uniformly without replacement.
//   - Stratified: the range is cut into k equal-width strata, one uniform draw per stratum.
//   - Jensen: the range is cut into k equal-width strata and the midpoint of
//     each stratum is taken deterministically (Jensen's partitioning). This is the
//     default scheme when sampling is requested without naming one.
//
// Every plan is deduplicated, sorted ascending and never larger than the
// population. Stratified and Jensen picks report the stratum they stand for,
// so callers can attach the whole stratum's mass to the representative.
//
// Sample sizes may shrink geometrically with the period index through
// Config.ReductionFactor: size(t) = ceil(MaxSampleSize / ReductionFactor^t).
//
// Randomness is explicit and deterministic: a zero seed maps to a fixed
// default seed, and independent streams are derived with a SplitMix64 mix so
// that parallel workers never share a *rand.Rand.
package sampling
