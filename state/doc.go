// SPDX-License-Identifier: MIT

// Package state defines the state model of a finite-horizon stochastic
// dynamic program: integer-coded coordinate vectors, period-tagged state
// descriptors, actions, per-dimension boundaries and the per-period State
// Space that hands out exactly one canonical *State per descriptor.
//
// Concurrency:
//
//	Space shards its descriptor map across RWMutex-guarded buckets.
//	GetOrCreate is an atomic insert-if-absent: concurrent first access to
//	the same descriptor always observes a single canonical *State.
//	A State computes its admissible actions at most once (sync.Once).
//
// Enumeration:
//
//	Space.Iterator walks the discretized grid lazily, either exhaustively or
//	through a sampling.Plan over grid indices. Iterators are finite and
//	non-restartable; draining one registers every visited state.
//
// Errors:
//
//	ErrBadBoundaries      - empty, inverted or non-positive-step boundaries.
//	ErrDimensionMismatch  - vector arity differs from the boundaries.
//	ErrOutOfBounds        - coordinates outside the configured grid.
//	ErrNilGenerator       - no action generator configured.
//	ErrNoActions          - neither generated nor idempotent actions exist.
//	ErrPeriodOutOfRange   - descriptor period outside the horizon.
package state
