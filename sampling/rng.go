// SPDX-License-Identifier: MIT

// Package sampling - deterministic RNG utilities shared by every sampled
// enumeration (states, actions, scenarios).
//
// Concurrency:
//   - math/rand.Rand is NOT goroutine-safe. Never share one across workers.
//   - Use Derive to create an independent stream per period or per (state, action).
package sampling

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed is used whenever a caller passes seed == 0.
const DefaultSeed int64 = 1

// NewRand returns a deterministic *rand.Rand. Seed 0 maps to DefaultSeed.
//
// Complexity: O(1).
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}

	return rand.New(rand.NewSource(seed))
}

// Derive returns an independent deterministic stream for (seed, stream).
// Equal inputs always yield identical sequences, across goroutines and runs.
//
// Rationale:
//   - Backward generation draws one stream per period, scenario plans one per
//     (state, action); workers must never share a *rand.Rand.
//   - The source seed is one SplitMix64 step: seed XOR stream advanced by the
//     golden-ratio increment, then the Stafford variant 13 finalizer. Adjacent
//     stream ids land far apart.
//
// Complexity: O(1).
func Derive(seed int64, stream uint64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	z := (uint64(seed) ^ stream) + golden
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return rand.New(rand.NewSource(int64(z ^ (z >> 31))))
}

// golden is the SplitMix64 increment, 2^64 divided by the golden ratio.
const golden = 0x9e3779b97f4a7c15

// StreamOf hashes an arbitrary key (e.g. an encoded descriptor) into a stream id.
func StreamOf(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))

	return h.Sum64()
}
