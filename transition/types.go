// SPDX-License-Identifier: MIT

package transition

import (
	"errors"

	"github.com/katalvlaran/sdp/state"
)

// Sentinel errors for transition evaluation.
var (
	// ErrBadDistribution indicates invalid distribution parameters.
	ErrBadDistribution = errors.New("transition: invalid distribution parameters")

	// ErrBadTail indicates a truncation tail outside (0, 0.5).
	ErrBadTail = errors.New("transition: truncation tail must be in (0, 0.5)")

	// ErrNoDistribution indicates no distribution is defined for a period.
	ErrNoDistribution = errors.New("transition: no distribution for period")

	// ErrNoSuccessors indicates that no successor with positive mass remains.
	ErrNoSuccessors = errors.New("transition: no successor with positive probability")

	// ErrUnsupported indicates an enumeration mode the model cannot serve.
	ErrUnsupported = errors.New("transition: unsupported enumeration mode")

	// ErrStepMismatch indicates a discretized distribution whose step differs
	// from the state grid.
	ErrStepMismatch = errors.New("transition: distribution step differs from grid step")

	// ErrNilDistribution indicates a Model built without a DistributionFunc.
	ErrNilDistribution = errors.New("transition: distribution func is nil")
)

// Outcome is one realization of the random vector with its probability.
type Outcome struct {
	X state.Vector
	P float64
}

// Transition is a successor state reached with probability P.
type Transition struct {
	State *state.State
	P     float64
}

// OutcomeFunc maps (initial, action, final) onto the random outcome that realizes it.
type OutcomeFunc func(s *state.State, a state.Action, final state.Vector) state.Vector

// ApplyFunc maps (initial, action, outcome) onto the final coordinates.
type ApplyFunc func(s *state.State, a state.Action, outcome state.Vector) state.Vector

// Resolver turns a next-period descriptor into its canonical state.
// ok=false with a nil error means the state is not available (dropped).
type Resolver func(d state.Descriptor) (s *state.State, ok bool, err error)

// Conservation is the default OutcomeFunc: initial + action - final.
func Conservation(s *state.State, a state.Action, final state.Vector) state.Vector {
	return s.X().Add(a.X).Sub(final)
}

// ApplyConservation is the default ApplyFunc: initial + action - outcome.
func ApplyConservation(s *state.State, a state.Action, outcome state.Vector) state.Vector {
	return s.X().Add(a.X).Sub(outcome)
}
