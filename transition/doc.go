// SPDX-License-Identifier: MIT

// Package transition evaluates the stochastic dynamics of a decision process:
// given a state and an action it enumerates every reachable successor state
// together with its probability.
//
// The random outcome of a period is an integer-coded vector drawn from a
// per-period Joint distribution. By default outcomes follow state
// conservation:
//
//	outcome = initial + action - final      (OutcomeFunc)
//	final   = initial + action - outcome    (ApplyFunc)
//
// Models with different dynamics supply both functions; Outcome must invert
// Apply for every outcome it can be asked about.
//
// Distributions are truncated to their central mass: outcomes below the tail
// quantile or above the (1-tail) quantile are dropped, and the remaining mass
// is renormalized. Continuous distributions are discretized to the grid step.
// Finals that fall outside the state grid (or, in backward recursion, that
// were never materialized) are dropped as well, and the successor
// probabilities of a (state, action) pair always sum to one.
//
// With scenario sampling enabled, only a sampling.Plan over the ordered
// outcome support is evaluated. Stratified and Jensen picks carry the mass of
// their whole stratum; SimpleRandom picks carry their own mass. Plans are
// seeded per (state, action), so repeated queries agree exactly.
package transition
