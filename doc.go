// SPDX-License-Identifier: MIT

// Package sdp solves finite-horizon stochastic dynamic programs on a
// discretized state space.
//
// A client describes its problem with callbacks (admissible actions, the
// immediate value of a transition, the random outcome of each period) and
// the engine computes the optimal value and action of every state through
// the Bellman recursion, either backward over whole periods or forward from
// one initial state.
//
// Packages:
//
//	state/       Vector, Descriptor, Action, Boundaries, per-period Space and Horizon
//	sampling/    None, SimpleRandom, Stratified and Jensen selection plans, seeded RNG streams
//	transition/  discretized distributions and the successor Model
//	store/       write-once key-value backends: memory, BadgerDB, SQLite
//	value/       the value repository and Bellman operator
//	recursion/   Backward and Forward drivers, Solution, Stats, metrics and tracing
//	config/      YAML and environment configuration
//	models/      inventory (s,S) lot sizing and gambler's ruin
//	cmd/sdp/     command-line driver
//
// Quick start:
//
//	p, _ := inventory.Default().Problem()
//	sol, err := recursion.SolveBackward(ctx, p, recursion.DefaultOptions())
//	if err != nil { ... }
//	q, _ := sol.OptimalAction(state.Descriptor{Period: 0, X: state.Vector{0}})
package sdp
