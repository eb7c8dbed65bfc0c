// SPDX-License-Identifier: MIT

package state

import (
	"encoding/binary"
	"fmt"
)

// Vector is an integer-coded coordinate vector. Vectors handed out by the
// engine are shared and must be treated as immutable.
type Vector []int

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)

	return out
}

// Equal reports structural equality.
func (v Vector) Equal(o Vector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}

	return true
}

// Add returns v + o. Panics on arity mismatch (programmer error).
func (v Vector) Add(o Vector) Vector {
	mustSameLen(v, o)
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] + o[i]
	}

	return out
}

// Sub returns v - o. Panics on arity mismatch (programmer error).
func (v Vector) Sub(o Vector) Vector {
	mustSameLen(v, o)
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] - o[i]
	}

	return out
}

func mustSameLen(a, b Vector) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("state: vector arity %d != %d", len(a), len(b)))
	}
}

// appendKey appends a varint encoding of every coordinate.
func (v Vector) appendKey(buf []byte) []byte {
	for _, c := range v {
		buf = binary.AppendVarint(buf, int64(c))
	}

	return buf
}

// Descriptor identifies a state: a decision epoch plus its coordinates.
// It is a pure lookup key; equality is structural over (Period, X).
type Descriptor struct {
	Period int
	X      Vector
}

// Key returns a compact structural encoding of (Period, X), suitable as a map
// or persistent store key. Equal descriptors always produce equal keys.
func (d Descriptor) Key() string {
	buf := make([]byte, 0, 2+3*len(d.X))
	buf = binary.AppendVarint(buf, int64(d.Period))

	return string(d.X.appendKey(buf))
}

// Equal reports structural equality.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Period == o.Period && d.X.Equal(o.X)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("t=%d x=%v", d.Period, []int(d.X))
}

// Action is an immutable decision expressed as an integer-coded vector
// (for instance an order quantity per item). Compared structurally.
type Action struct {
	X Vector
}

// NewAction builds an Action from its coordinates.
func NewAction(x ...int) Action {
	return Action{X: Vector(x).Clone()}
}

// Key returns a structural encoding of the action.
func (a Action) Key() string {
	return string(a.X.appendKey(make([]byte, 0, 3*len(a.X))))
}

// Equal reports structural equality.
func (a Action) Equal(o Action) bool {
	return a.X.Equal(o.X)
}

func (a Action) String() string {
	return fmt.Sprintf("%v", []int(a.X))
}

// DecodeAction reverses Action.Key.
func DecodeAction(key []byte) (Action, error) {
	var x Vector
	for len(key) > 0 {
		c, n := binary.Varint(key)
		if n <= 0 {
			return Action{}, fmt.Errorf("state: malformed action key")
		}
		x = append(x, int(c))
		key = key[n:]
	}

	return Action{X: x}, nil
}
