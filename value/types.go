// SPDX-License-Identifier: MIT

package value

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/sdp/state"
)

// Sentinel errors for the value repository.
var (
	// ErrBadDiscount indicates a negative, NaN or infinite discount factor.
	ErrBadDiscount = errors.New("value: discount factor must be finite and >= 0")

	// ErrNilDependency indicates a repository built without a model or immediate value function.
	ErrNilDependency = errors.New("value: transition model and immediate value function are required")

	// ErrMissingEntry indicates a query for a state whose optimum is not assigned.
	ErrMissingEntry = errors.New("value: no optimal entry for state")

	// ErrAlreadyAssigned indicates a second assignment of a state's optimum.
	ErrAlreadyAssigned = errors.New("value: optimal entry already assigned")

	// ErrUnknownDirection indicates an unrecognized optimization direction name.
	ErrUnknownDirection = errors.New("value: unknown optimization direction")

	// ErrCorruptEntry indicates a stored entry that cannot be decoded.
	ErrCorruptEntry = errors.New("value: corrupt stored entry")
)

// Direction selects minimization (costs) or maximization (rewards).
type Direction int

const (
	// Minimize picks the action with the lowest expected value.
	Minimize Direction = iota

	// Maximize picks the action with the highest expected value.
	Maximize
)

// Better reports whether a is strictly better than b.
func (d Direction) Better(a, b float64) bool {
	if d == Maximize {
		return a > b
	}

	return a < b
}

// String returns the configuration name of the direction.
func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps "min"/"minimize" and "max"/"maximize" onto a Direction.
// The empty name is Minimize.
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "min", "minimize":
		return Minimize, nil
	case "max", "maximize":
		return Maximize, nil
	default:
		return Minimize, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
	}
}

// ImmediateFunc returns the value realized when a moves s to f.
type ImmediateFunc func(s *state.State, a state.Action, f *state.State) float64

// TerminalFunc returns the boundary value of a terminal-period state.
type TerminalFunc func(s *state.State) float64

// Continuation returns the optimal value of a next-period state.
type Continuation func(f *state.State) (float64, error)

// Entry is the optimum of one state.
type Entry struct {
	Value  float64
	Action state.Action
}

func validDiscount(g float64) bool {
	return g >= 0 && !math.IsInf(g, 0)
}
