// SPDX-License-Identifier: MIT

package state

import (
	"fmt"
	"math"
)

// Dimension bounds one coordinate of the grid: integer codes Min..Max, each
// code k standing for the real value k*Step.
type Dimension struct {
	Step float64
	Min  int
	Max  int
}

// Size returns the number of integer codes in the dimension.
func (d Dimension) Size() int { return d.Max - d.Min + 1 }

// Boundaries is the immutable grid definition shared by every state space of a run.
type Boundaries struct {
	Dims []Dimension
}

// NewBoundaries builds boundaries from parallel per-dimension slices.
// Mismatched lengths fail with ErrDimensionMismatch; invalid ranges with ErrBadBoundaries.
func NewBoundaries(step []float64, min, max []int) (Boundaries, error) {
	if len(step) != len(min) || len(min) != len(max) {
		return Boundaries{}, fmt.Errorf("%w: step=%d min=%d max=%d", ErrDimensionMismatch, len(step), len(min), len(max))
	}
	dims := make([]Dimension, len(step))
	for i := range step {
		dims[i] = Dimension{Step: step[i], Min: min[i], Max: max[i]}
	}
	b := Boundaries{Dims: dims}

	return b, b.Validate()
}

// Interval returns one-dimensional boundaries with unit step.
func Interval(min, max int) Boundaries {
	return Boundaries{Dims: []Dimension{{Step: 1, Min: min, Max: max}}}
}

// Dim returns the arity of state vectors.
func (b Boundaries) Dim() int { return len(b.Dims) }

// Validate checks every dimension and that the grid size fits in an int.
//
// Complexity: O(dim).
func (b Boundaries) Validate() error {
	if len(b.Dims) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrBadBoundaries)
	}
	total := 1
	for i, d := range b.Dims {
		if d.Min > d.Max {
			return fmt.Errorf("%w: dimension %d min %d > max %d", ErrBadBoundaries, i, d.Min, d.Max)
		}
		if !(d.Step > 0) || math.IsInf(d.Step, 0) {
			return fmt.Errorf("%w: dimension %d step %v", ErrBadBoundaries, i, d.Step)
		}
		size := d.Size()
		if size <= 0 || total > math.MaxInt/size {
			return fmt.Errorf("%w: grid too large", ErrBadBoundaries)
		}
		total *= size
	}

	return nil
}

// Cardinality returns the number of grid points. Boundaries must be valid.
func (b Boundaries) Cardinality() int {
	total := 1
	for _, d := range b.Dims {
		total *= d.Size()
	}

	return total
}

// Check reports ErrDimensionMismatch or ErrOutOfBounds for x.
func (b Boundaries) Check(x Vector) error {
	if len(x) != len(b.Dims) {
		return fmt.Errorf("%w: got %d coordinates, want %d", ErrDimensionMismatch, len(x), len(b.Dims))
	}
	for i, d := range b.Dims {
		if x[i] < d.Min || x[i] > d.Max {
			return fmt.Errorf("%w: coordinate %d = %d not in [%d, %d]", ErrOutOfBounds, i, x[i], d.Min, d.Max)
		}
	}

	return nil
}

// Contains reports whether x lies on the grid.
func (b Boundaries) Contains(x Vector) bool {
	return b.Check(x) == nil
}

// Index maps grid coordinates to their mixed-radix position, first dimension
// varying fastest. x must be contained in b.
//
// Complexity: O(dim).
func (b Boundaries) Index(x Vector) int {
	idx, stride := 0, 1
	for i, d := range b.Dims {
		idx += (x[i] - d.Min) * stride
		stride *= d.Size()
	}

	return idx
}

// Coordinates is the inverse of Index for 0 <= index < Cardinality().
//
// Complexity: O(dim).
func (b Boundaries) Coordinates(index int) Vector {
	x := make(Vector, len(b.Dims))
	for i, d := range b.Dims {
		size := d.Size()
		x[i] = d.Min + index%size
		index /= size
	}

	return x
}

// Value converts integer codes into real values (code * step).
func (b Boundaries) Value(x Vector) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = float64(x[i]) * b.Dims[i].Step
	}

	return out
}
