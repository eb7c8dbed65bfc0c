// SPDX-License-Identifier: MIT

package recursion

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/katalvlaran/sdp/sampling"
	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/store"
	"github.com/katalvlaran/sdp/transition"
	"github.com/katalvlaran/sdp/value"
)

// Sentinel errors for problem and driver configuration.
var (
	// ErrBadHorizon indicates a horizon below one decision period.
	ErrBadHorizon = errors.New("recursion: horizon must have at least one decision period")

	// ErrNilCallback indicates a missing required problem function.
	ErrNilCallback = errors.New("recursion: required callback is nil")

	// ErrBadWorkers indicates a negative worker count.
	ErrBadWorkers = errors.New("recursion: workers must be >= 0")

	// ErrAlreadyRun indicates a second Run on the same Backward driver.
	ErrAlreadyRun = errors.New("recursion: driver already ran")

	// ErrStoreNotEmpty indicates a value store that already holds entries,
	// typically a persistent backend reopened without truncation.
	ErrStoreNotEmpty = errors.New("recursion: value store is not empty")

	// ErrUnknownState indicates a query for a state the run never created.
	ErrUnknownState = errors.New("recursion: state was not generated")
)

// Problem is the model supplied by the client.
type Problem struct {
	// Horizon is the number of decision periods T. States exist in periods
	// 0..T; period T is terminal and carries only boundary values.
	Horizon int

	// Boundaries discretizes the state space.
	Boundaries state.Boundaries

	// Actions lists the admissible actions of a state. Required.
	Actions state.ActionGenerator

	// Idempotent returns the no-op action. Optional.
	Idempotent state.IdempotentFunc

	// Immediate is the value of one transition. Required.
	Immediate value.ImmediateFunc

	// Terminal is the boundary value at period T. Nil means 0.
	Terminal value.TerminalFunc

	// Distribution returns the random outcome distribution of a period. Required.
	Distribution transition.DistributionFunc

	// Outcome and Apply map between finals and outcomes. Both nil selects
	// state conservation (final = initial + action - outcome).
	Outcome transition.OutcomeFunc
	Apply   transition.ApplyFunc
}

// Validate checks the problem definition.
func (p Problem) Validate() error {
	if p.Horizon < 1 {
		return fmt.Errorf("%w: %d", ErrBadHorizon, p.Horizon)
	}
	switch {
	case p.Actions == nil:
		return fmt.Errorf("%w: actions", ErrNilCallback)
	case p.Immediate == nil:
		return fmt.Errorf("%w: immediate value", ErrNilCallback)
	case p.Distribution == nil:
		return fmt.Errorf("%w: distribution", ErrNilCallback)
	}

	return p.Boundaries.Validate()
}

// Options tunes a run.
type Options struct {
	// Workers bounds parallel state evaluation. 0 means GOMAXPROCS.
	Workers int

	// Direction selects minimization or maximization.
	Direction value.Direction

	// Discount multiplies continuation values, >= 0.
	Discount float64

	// Tail truncates outcome distributions. 0 means transition.DefaultTail.
	Tail float64

	// Seed drives every random sampling plan. 0 means sampling.DefaultSeed.
	Seed int64

	// StateSampling selects the states of each period (backward only).
	StateSampling sampling.Config

	// ActionSampling caps the admissible actions of each state.
	ActionSampling sampling.Config

	// ScenarioSampling selects the outcomes evaluated per (state, action).
	ScenarioSampling sampling.Config

	// Store keeps value entries. Nil means a fresh in-memory store.
	Store store.Store

	// Logger receives run diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns an exact, undiscounted minimization on all CPUs.
func DefaultOptions() Options {
	return Options{
		Workers:   runtime.GOMAXPROCS(0),
		Direction: value.Minimize,
		Discount:  1,
		Tail:      transition.DefaultTail,
	}
}

// validate checks opts against the problem grid and fills defaults.
func (o *Options) validate(b state.Boundaries) error {
	if o.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrBadWorkers, o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Tail == 0 {
		o.Tail = transition.DefaultTail
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	policies := []struct {
		name string
		cfg  sampling.Config
	}{
		{"state", o.StateSampling},
		{"action", o.ActionSampling},
		{"scenario", o.ScenarioSampling},
	}
	for _, p := range policies {
		if err := p.cfg.Validate(); err != nil {
			return fmt.Errorf("%s sampling: %w", p.name, err)
		}
	}
	if n := b.Cardinality(); o.StateSampling.Enabled() && o.StateSampling.MaxSampleSize > n {
		return fmt.Errorf("state sampling: %w: %d > %d grid points",
			sampling.ErrSampleExceedsPopulation, o.StateSampling.MaxSampleSize, n)
	}

	return nil
}
