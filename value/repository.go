// SPDX-License-Identifier: MIT

// Package value - the Bellman operator over a write-once store.
//
// Layout inside the store:
//   - 'e' + uvarint(len(state key)) + state key + action key: expected value
//     of an action, 8 bytes big-endian float64.
//   - 'o' + state key: optimal entry, the float64 followed by the action key.
//
// Policies:
//   - Every entry is written at most once. Concurrent writers of an expected
//     value agree on the first stored result; a second optimal entry is an error.
//   - Optimization keeps the first admissible action on ties.
//
// Complexity:
//   - ExpectedValue: O(|successors|) on first use, one read afterwards.
//   - Optimize: O(|actions| · |successors|).
package value

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/store"
	"github.com/katalvlaran/sdp/transition"
)

// Key prefixes inside the store.
const (
	prefixExpected = 'e'
	prefixOptimal  = 'o'
)

// Config assembles a Repository.
type Config struct {
	// Store keeps the entries. Nil means a fresh in-memory store.
	Store store.Store

	// Model enumerates successors. Required.
	Model *transition.Model

	// Immediate is the per-transition value. Required.
	Immediate ImmediateFunc

	// Terminal is the boundary value. Nil means 0 everywhere.
	Terminal TerminalFunc

	// Discount multiplies the continuation value.
	Discount float64

	// Direction selects min or max.
	Direction Direction
}

// Repository memoizes expected values and optimal entries. Safe for
// concurrent use; every entry is written at most once.
type Repository struct {
	store     store.Store
	model     *transition.Model
	immediate ImmediateFunc
	terminal  TerminalFunc
	discount  float64
	direction Direction
}

// NewRepository validates cfg and builds a Repository.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Model == nil || cfg.Immediate == nil {
		return nil, ErrNilDependency
	}
	if !validDiscount(cfg.Discount) {
		return nil, fmt.Errorf("%w: %v", ErrBadDiscount, cfg.Discount)
	}
	if cfg.Direction != Minimize && cfg.Direction != Maximize {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDirection, cfg.Direction)
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemory()
	}

	return &Repository{
		store:     st,
		model:     cfg.Model,
		immediate: cfg.Immediate,
		terminal:  cfg.Terminal,
		discount:  cfg.Discount,
		direction: cfg.Direction,
	}, nil
}

// Direction returns the optimization direction.
func (r *Repository) Direction() Direction { return r.direction }

// Discount returns the discount factor.
func (r *Repository) Discount() float64 { return r.discount }

// Model returns the transition model.
func (r *Repository) Model() *transition.Model { return r.model }

// Store returns the backing store.
func (r *Repository) Store() store.Store { return r.store }

// ExpectedValue returns Σ p·(immediate + discount·cont(s')) over the
// successors of (s, a), computing it on first use.
//
// Complexity: O(|successors|) on a miss, one store read on a hit.
func (r *Repository) ExpectedValue(s *state.State, a state.Action, resolve transition.Resolver, cont Continuation) (float64, error) {
	key := expectedKey(s.Key(), a.Key())
	if raw, ok, err := r.store.Get(key); err != nil {
		return 0, state.Locate(s.Descriptor(), err)
	} else if ok {
		return decodeFloat(s, raw)
	}

	succ, err := r.model.Successors(s, a, resolve)
	if err != nil {
		return 0, err
	}
	ev := 0.0
	for _, tr := range succ {
		v, err := cont(tr.State)
		if err != nil {
			return 0, err
		}
		ev += tr.P * (r.immediate(s, a, tr.State) + r.discount*v)
	}

	raw, _, err := r.store.PutIfAbsent(key, encodeFloat(ev))
	if err != nil {
		return 0, state.Locate(s.Descriptor(), err)
	}

	return decodeFloat(s, raw)
}

// Expected returns a memoized expected value without computing it.
func (r *Repository) Expected(d state.Descriptor, a state.Action) (float64, bool, error) {
	raw, ok, err := r.store.Get(expectedKey(d.Key(), a.Key()))
	if err != nil || !ok {
		return 0, false, state.Locate(d, err)
	}
	if len(raw) != 8 {
		return 0, false, state.Locate(d, ErrCorruptEntry)
	}

	return math.Float64frombits(binary.BigEndian.Uint64(raw)), true, nil
}

// Optimize scans the admissible actions of s in generator order and returns
// the best one. An action replaces the incumbent only when strictly better,
// so the first encountered action wins ties.
func (r *Repository) Optimize(s *state.State, resolve transition.Resolver, cont Continuation) (Entry, error) {
	actions, err := s.Actions()
	if err != nil {
		return Entry{}, err
	}
	var (
		best  Entry
		found bool
	)
	for _, a := range actions {
		v, err := r.ExpectedValue(s, a, resolve, cont)
		if err != nil {
			return Entry{}, err
		}
		if !found || r.direction.Better(v, best.Value) {
			best, found = Entry{Value: v, Action: a}, true
		}
	}

	return best, nil
}

// SetOptimal records the optimum of s. A state is assigned at most once.
func (r *Repository) SetOptimal(s *state.State, e Entry) error {
	_, loaded, err := r.store.PutIfAbsent(optimalKey(s.Key()), encodeEntry(e))
	if err != nil {
		return state.Locate(s.Descriptor(), err)
	}
	if loaded {
		return state.Locate(s.Descriptor(), ErrAlreadyAssigned)
	}

	return nil
}

// SetTerminal assigns the boundary value of a terminal state together with
// its idempotent action (the zero vector when none is configured).
func (r *Repository) SetTerminal(s *state.State) (Entry, error) {
	e := Entry{Action: state.Action{X: make(state.Vector, len(s.X()))}}
	if a, ok := s.Idempotent(); ok {
		e.Action = a
	}
	if r.terminal != nil {
		e.Value = r.terminal(s)
	}

	return e, r.SetOptimal(s, e)
}

// Optimal returns the recorded optimum of d.
func (r *Repository) Optimal(d state.Descriptor) (Entry, error) {
	raw, ok, err := r.store.Get(optimalKey(d.Key()))
	if err != nil {
		return Entry{}, state.Locate(d, err)
	}
	if !ok {
		return Entry{}, state.Locate(d, ErrMissingEntry)
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return Entry{}, state.Locate(d, err)
	}

	return e, nil
}

// OptimalValue returns the optimal value of d.
func (r *Repository) OptimalValue(d state.Descriptor) (float64, error) {
	e, err := r.Optimal(d)

	return e.Value, err
}

// OptimalAction returns the optimal action of d.
func (r *Repository) OptimalAction(d state.Descriptor) (state.Action, error) {
	e, err := r.Optimal(d)

	return e.Action, err
}

// Recorded returns the continuation that reads assigned optima, failing with
// ErrMissingEntry for unsolved states.
func (r *Repository) Recorded() Continuation {
	return func(f *state.State) (float64, error) {
		return r.OptimalValue(f.Descriptor())
	}
}

func expectedKey(stateKey, actionKey string) []byte {
	buf := make([]byte, 0, 2+len(stateKey)+len(actionKey)+binary.MaxVarintLen64)
	buf = append(buf, prefixExpected)
	buf = binary.AppendUvarint(buf, uint64(len(stateKey)))
	buf = append(buf, stateKey...)

	return append(buf, actionKey...)
}

func optimalKey(stateKey string) []byte {
	return append([]byte{prefixOptimal}, stateKey...)
}

func encodeFloat(v float64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), math.Float64bits(v))
}

func decodeFloat(s *state.State, raw []byte) (float64, error) {
	if len(raw) != 8 {
		return 0, state.Locate(s.Descriptor(), ErrCorruptEntry)
	}

	return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
}

func encodeEntry(e Entry) []byte {
	return append(encodeFloat(e.Value), e.Action.Key()...)
}

func decodeEntry(raw []byte) (Entry, error) {
	if len(raw) < 8 {
		return Entry{}, ErrCorruptEntry
	}
	a, err := state.DecodeAction(raw[8:])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	return Entry{Value: math.Float64frombits(binary.BigEndian.Uint64(raw[:8])), Action: a}, nil
}
