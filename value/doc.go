// SPDX-License-Identifier: MIT

// Package value holds the value repository: memoized expected values per
// (state, action) and the write-once optimal entry per state.
//
// The Bellman operator evaluated here is
//
//	E(s, a) = Σ p(s'|s,a) · (c(s, a, s') + γ · V(s'))
//	V(s)    = opt_a E(s, a)
//
// where opt is min or max according to Direction, and V of the next period
// is supplied by the caller as a Continuation. Entries live in a store.Store
// so a run may keep them in memory, in BadgerDB or in SQLite.
package value
