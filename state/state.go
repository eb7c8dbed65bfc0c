// SPDX-License-Identifier: MIT

package state

import (
	"fmt"
	"sync"

	"github.com/katalvlaran/sdp/sampling"
)

// ActionGenerator lists the admissible actions of a state.
// It may be called concurrently for different states.
type ActionGenerator func(s *State) ([]Action, error)

// IdempotentFunc returns the no-op action of a state: the terminal default and
// the last-resort action when the generator yields nothing.
type IdempotentFunc func(s *State) Action

// Config is the immutable configuration shared by all spaces of a run.
type Config struct {
	// Boundaries defines the discretized grid.
	Boundaries Boundaries

	// Actions generates admissible actions. Required.
	Actions ActionGenerator

	// Idempotent returns the no-op action. Optional.
	Idempotent IdempotentFunc

	// ActionSampling caps large action sets. Zero value keeps every action.
	ActionSampling sampling.Config

	// Seed drives SimpleRandom/Stratified action sampling; 0 means sampling.DefaultSeed.
	Seed int64
}

// Validate checks the configuration before any state is created.
func (c *Config) Validate() error {
	if err := c.Boundaries.Validate(); err != nil {
		return err
	}
	if c.Actions == nil {
		return ErrNilGenerator
	}

	return c.ActionSampling.Validate()
}

// State is the canonical object for one descriptor within a run. It owns its
// action list, which is generated lazily and at most once.
type State struct {
	desc Descriptor
	key  string
	cfg  *Config

	once    sync.Once
	actions []Action
	err     error
}

func newState(d Descriptor, cfg *Config) *State {
	return &State{desc: d, key: d.Key(), cfg: cfg}
}

// Descriptor returns the state's descriptor. Its vector must not be mutated.
func (s *State) Descriptor() Descriptor { return s.desc }

// Period returns the decision epoch.
func (s *State) Period() int { return s.desc.Period }

// X returns the state's coordinates. The slice must not be mutated.
func (s *State) X() Vector { return s.desc.X }

// Key returns the structural key of the descriptor.
func (s *State) Key() string { return s.key }

// Value returns the real-valued coordinates (code * step).
func (s *State) Value() []float64 { return s.cfg.Boundaries.Value(s.desc.X) }

func (s *State) String() string { return s.desc.String() }

// Idempotent returns the configured no-op action, if any.
func (s *State) Idempotent() (Action, bool) {
	if s.cfg.Idempotent == nil {
		return Action{}, false
	}

	return s.cfg.Idempotent(s), true
}

// Actions returns the admissible actions in generator order, capped by the
// action sampling policy. An empty generator result falls back to the
// idempotent action; with neither, ErrNoActions is returned.
// The result is computed once and shared; callers must not modify it.
func (s *State) Actions() ([]Action, error) {
	s.once.Do(func() {
		s.actions, s.err = s.generate()
		if s.err != nil {
			s.err = Locate(s.desc, s.err)
		}
	})

	return s.actions, s.err
}

func (s *State) generate() ([]Action, error) {
	list, err := s.cfg.Actions(s)
	if err != nil {
		return nil, fmt.Errorf("generate actions: %w", err)
	}
	if len(list) == 0 {
		if a, ok := s.Idempotent(); ok {
			return []Action{a}, nil
		}

		return nil, ErrNoActions
	}

	policy := s.cfg.ActionSampling
	if !policy.Enabled() {
		return list, nil
	}
	k := policy.SizeAt(s.desc.Period)
	if k >= len(list) {
		return list, nil
	}
	rng := sampling.Derive(s.cfg.Seed, sampling.StreamOf("actions/"+s.key))
	picks, err := sampling.Plan(policy.Scheme, len(list), k, rng)
	if err != nil {
		return nil, err
	}
	out := make([]Action, len(picks))
	for i, p := range picks {
		out[i] = list[p.Index]
	}

	return out, nil
}
