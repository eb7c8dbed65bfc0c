// SPDX-License-Identifier: MIT

// File: space.go
// Role: per-period state catalogs and their lazy iterators.
//
// Determinism:
//   - States() returns states ordered by grid index, whatever order they were created in.
//   - An Iterator over a sampled plan depends only on the plan's rng stream.
//
// Concurrency:
//   - GetOrCreate and Lookup are safe from any goroutine; each of the
//     shards is guarded by its own RWMutex and a key lives in exactly one shard.
//   - An Iterator belongs to one goroutine.
//
// Complexity:
//   - GetOrCreate/Lookup: O(dim) for the key plus one map access.
//   - States: O(n log n) for the snapshot sort.
package state

import (
	"hash/maphash"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/katalvlaran/sdp/sampling"
)

const shardCount = 32

type shard struct {
	mu     sync.RWMutex
	states map[string]*State
}

// Space is the memoized registry of one period: it maps descriptors to their
// canonical *State. Safe for concurrent use.
type Space struct {
	period int
	cfg    *Config
	seed   maphash.Seed
	shards [shardCount]shard
	size   atomic.Int64
}

func newSpace(period int, cfg *Config) *Space {
	sp := &Space{period: period, cfg: cfg, seed: maphash.MakeSeed()}
	for i := range sp.shards {
		sp.shards[i].states = make(map[string]*State)
	}

	return sp
}

// Period returns the decision epoch this space belongs to.
func (sp *Space) Period() int { return sp.period }

// Len returns the number of canonical states created so far.
func (sp *Space) Len() int { return int(sp.size.Load()) }

// Cardinality returns the size of the full discretized grid.
func (sp *Space) Cardinality() int { return sp.cfg.Boundaries.Cardinality() }

func (sp *Space) shardOf(key string) *shard {
	return &sp.shards[maphash.String(sp.seed, key)%shardCount]
}

// GetOrCreate returns the canonical state for x, creating and registering it
// when absent. created reports whether this call inserted it. Concurrent calls
// with equal coordinates always return the same pointer.
//
// Errors: ErrDimensionMismatch, ErrOutOfBounds (wrapped in *Error).
//
// Complexity: O(dim) amortized.
func (sp *Space) GetOrCreate(x Vector) (s *State, created bool, err error) {
	d := Descriptor{Period: sp.period, X: x}
	if err = sp.cfg.Boundaries.Check(x); err != nil {
		return nil, false, Locate(d, err)
	}
	key := d.Key()
	sh := sp.shardOf(key)

	sh.mu.RLock()
	s = sh.states[key]
	sh.mu.RUnlock()
	if s != nil {
		return s, false, nil
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if s = sh.states[key]; s != nil {
		return s, false, nil
	}
	d.X = x.Clone()
	s = newState(d, sp.cfg)
	sh.states[key] = s
	sp.size.Add(1)

	return s, true, nil
}

// Lookup returns the canonical state for x without creating it.
func (sp *Space) Lookup(x Vector) (*State, bool) {
	key := Descriptor{Period: sp.period, X: x}.Key()
	sh := sp.shardOf(key)
	sh.mu.RLock()
	s, ok := sh.states[key]
	sh.mu.RUnlock()

	return s, ok
}

// States returns a snapshot of every registered state ordered by grid index.
//
// Complexity: O(n log n).
func (sp *Space) States() []*State {
	out := make([]*State, 0, sp.Len())
	for i := range sp.shards {
		sh := &sp.shards[i]
		sh.mu.RLock()
		for _, s := range sh.states {
			out = append(out, s)
		}
		sh.mu.RUnlock()
	}
	b := sp.cfg.Boundaries
	sort.Slice(out, func(i, j int) bool { return b.Index(out[i].desc.X) < b.Index(out[j].desc.X) })

	return out
}

// Iterator returns a lazy enumeration of this period's states under policy.
// A disabled policy walks the entire grid; otherwise a sampling.Plan of
// policy.SizeAt(period) grid indices is walked (clamped to the grid size).
// rng feeds SimpleRandom and Stratified plans and may be nil.
func (sp *Space) Iterator(policy sampling.Config, rng *rand.Rand) *Iterator {
	it := &Iterator{space: sp, n: sp.Cardinality()}
	if !policy.Enabled() {
		return it
	}
	k := policy.SizeAt(sp.period)
	if k > it.n {
		k = it.n
	}
	picks, err := sampling.Plan(policy.Scheme, it.n, k, rng)
	if err != nil {
		it.err = err
		return it
	}
	it.picks = picks
	it.n = len(picks)
	it.sampled = true

	return it
}

// Iterator walks a finite sequence of states once. Typical use:
//
//	it := space.Iterator(policy, rng)
//	for it.Next() {
//		s := it.State()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	space   *Space
	picks   []sampling.Pick
	sampled bool
	pos     int
	n       int
	cur     *State
	err     error
}

// Next advances to the next state, creating it in the space if needed.
// It returns false once the sequence is exhausted or an error occurred.
func (it *Iterator) Next() bool {
	if it.err != nil || it.pos >= it.n {
		it.cur = nil
		return false
	}
	idx := it.pos
	if it.sampled {
		idx = it.picks[it.pos].Index
	}
	it.pos++
	s, _, err := it.space.GetOrCreate(it.space.cfg.Boundaries.Coordinates(idx))
	if err != nil {
		it.err = err
		it.cur = nil
		return false
	}
	it.cur = s

	return true
}

// State returns the current state (nil before Next or after exhaustion).
func (it *Iterator) State() *State { return it.cur }

// Err returns the first error met during iteration.
func (it *Iterator) Err() error { return it.err }

// Remaining returns how many states are left to visit.
func (it *Iterator) Remaining() int { return it.n - it.pos }
