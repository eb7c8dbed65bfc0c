// SPDX-License-Identifier: MIT

package state

import (
	"errors"
	"fmt"
)

// Sentinel errors for the state model.
var (
	// ErrBadBoundaries indicates empty boundaries, Min > Max, a non-positive
	// step, or a grid too large to index.
	ErrBadBoundaries = errors.New("state: invalid boundaries")

	// ErrDimensionMismatch indicates parallel slices of different length or a
	// vector whose arity differs from the configured boundaries.
	ErrDimensionMismatch = errors.New("state: dimension mismatch")

	// ErrOutOfBounds indicates coordinates outside [Min, Max] in some dimension.
	ErrOutOfBounds = errors.New("state: coordinates out of bounds")

	// ErrNilGenerator indicates a Config without an action generator.
	ErrNilGenerator = errors.New("state: action generator is nil")

	// ErrNoActions indicates a state with no admissible and no idempotent action.
	ErrNoActions = errors.New("state: no admissible action")

	// ErrPeriodOutOfRange indicates a descriptor period outside the horizon.
	ErrPeriodOutOfRange = errors.New("state: period out of range")
)

// Error attaches the offending period and coordinates to an engine error.
// Callers match the cause with errors.Is and the location with errors.As.
type Error struct {
	Period int
	X      Vector
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("period %d state %v: %v", e.Period, e.X, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Locate wraps err with the descriptor's location unless it already carries one.
func Locate(d Descriptor, err error) error {
	if err == nil {
		return nil
	}
	var located *Error
	if errors.As(err, &located) {
		return err
	}

	return &Error{Period: d.Period, X: d.X, Err: err}
}
