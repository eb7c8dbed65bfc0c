// SPDX-License-Identifier: MIT

// Package inventory is the single-item lot-sizing model: each period the
// stock level x is observed, q units are ordered and delivered at once, and a
// Poisson demand d is served from x+q. Unmet demand is backlogged.
//
// The cost of a period is
//
//	K·[q > 0] + v·q + h·max(x+q-d, 0) + p·max(d-x-q, 0)
//
// With a fixed ordering cost K the optimal policy has the (s,S) form:
// order up to S whenever the stock falls to s or below. ReorderPolicy
// extracts s and S from a solved run.
package inventory

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/transition"
)

// Sentinel errors for the inventory model.
var (
	// ErrBadConfig indicates invalid model parameters.
	ErrBadConfig = errors.New("inventory: invalid configuration")

	// ErrNotSS indicates an optimal policy that does not have the (s,S) form.
	ErrNotSS = errors.New("inventory: policy is not of (s,S) form")
)

// Config holds the model parameters.
type Config struct {
	FixedCost        float64   `yaml:"fixed_cost"`
	ProportionalCost float64   `yaml:"proportional_cost"`
	HoldingCost      float64   `yaml:"holding_cost"`
	PenaltyCost      float64   `yaml:"penalty_cost"`
	DemandMeans      []float64 `yaml:"demand_means"`
	MinInventory     int       `yaml:"min_inventory"`
	MaxInventory     int       `yaml:"max_inventory"`
	MaxOrder         int       `yaml:"max_order"`
	InitialInventory int       `yaml:"initial_inventory"`
}

// Default returns a four-period instance with K=50, v=0, h=1, p=4 and
// Poisson demand means 20, 30, 20 and 40.
func Default() Config {
	return Config{
		FixedCost:        50,
		ProportionalCost: 0,
		HoldingCost:      1,
		PenaltyCost:      4,
		DemandMeans:      []float64{20, 30, 20, 40},
		MinInventory:     -100,
		MaxInventory:     120,
		MaxOrder:         120,
		InitialInventory: 0,
	}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	switch {
	case len(c.DemandMeans) == 0:
		return fmt.Errorf("%w: no demand periods", ErrBadConfig)
	case c.MinInventory > c.MaxInventory:
		return fmt.Errorf("%w: min_inventory %d > max_inventory %d", ErrBadConfig, c.MinInventory, c.MaxInventory)
	case c.MaxOrder < 0:
		return fmt.Errorf("%w: max_order %d", ErrBadConfig, c.MaxOrder)
	case c.InitialInventory < c.MinInventory || c.InitialInventory > c.MaxInventory:
		return fmt.Errorf("%w: initial_inventory %d outside [%d, %d]", ErrBadConfig, c.InitialInventory, c.MinInventory, c.MaxInventory)
	}
	for _, cost := range []float64{c.FixedCost, c.ProportionalCost, c.HoldingCost, c.PenaltyCost} {
		if cost < 0 || math.IsNaN(cost) {
			return fmt.Errorf("%w: negative cost %v", ErrBadConfig, cost)
		}
	}
	for t, m := range c.DemandMeans {
		if m < 0 || math.IsNaN(m) {
			return fmt.Errorf("%w: demand mean %v in period %d", ErrBadConfig, m, t)
		}
	}

	return nil
}

// Problem builds the recursion problem.
func (c Config) Problem() (recursion.Problem, error) {
	if err := c.Validate(); err != nil {
		return recursion.Problem{}, err
	}
	demand := make([]transition.Joint, len(c.DemandMeans))
	for t, m := range c.DemandMeans {
		demand[t] = transition.Univariate{D: transition.Poisson{Mean: m}}
	}

	return recursion.Problem{
		Horizon:      len(c.DemandMeans),
		Boundaries:   state.Interval(c.MinInventory, c.MaxInventory),
		Actions:      c.orders,
		Idempotent:   func(*state.State) state.Action { return state.NewAction(0) },
		Immediate:    c.cost,
		Distribution: transition.PerPeriod(demand...),
	}, nil
}

// orders lists q = 0, 1, … while x+q stays on the grid and q <= MaxOrder.
func (c Config) orders(s *state.State) ([]state.Action, error) {
	x := s.X()[0]
	limit := min(c.MaxOrder, c.MaxInventory-x)
	out := make([]state.Action, 0, limit+1)
	for q := 0; q <= limit; q++ {
		out = append(out, state.NewAction(q))
	}

	return out, nil
}

func (c Config) cost(_ *state.State, a state.Action, f *state.State) float64 {
	q, x := float64(a.X[0]), float64(f.X()[0])
	total := c.ProportionalCost*q + c.HoldingCost*math.Max(x, 0) + c.PenaltyCost*math.Max(-x, 0)
	if q > 0 {
		total += c.FixedCost
	}

	return total
}

// Policy is the (s,S) rule of one period.
type Policy struct {
	Period int

	// Reorder is s: the largest stock level at which an order is placed.
	Reorder int

	// OrderUpTo is S: the level every order restores.
	OrderUpTo int
}

func (p Policy) String() string {
	return fmt.Sprintf("t=%d s=%d S=%d", p.Period, p.Reorder, p.OrderUpTo)
}

// ReorderPolicy reads the optimal orders of a period over stock levels
// [lo, hi] and checks that they follow one (s,S) rule: orders are placed
// exactly at levels <= s and always raise the stock to S.
func ReorderPolicy(sol *recursion.Solution, period, lo, hi int) (Policy, error) {
	pol := Policy{Period: period, Reorder: lo - 1, OrderUpTo: lo - 1}
	ordering := true
	for x := lo; x <= hi; x++ {
		a, err := sol.OptimalAction(state.Descriptor{Period: period, X: state.Vector{x}})
		if err != nil {
			return Policy{}, err
		}
		q := a.X[0]
		switch {
		case q > 0 && !ordering:
			return Policy{}, fmt.Errorf("%w: period %d orders again at %d above s=%d", ErrNotSS, period, x, pol.Reorder)
		case q > 0 && x > lo && x+q != pol.OrderUpTo:
			return Policy{}, fmt.Errorf("%w: period %d orders up to %d at %d, want %d", ErrNotSS, period, x+q, x, pol.OrderUpTo)
		case q > 0:
			pol.Reorder, pol.OrderUpTo = x, x+q
		default:
			ordering = false
		}
	}

	return pol, nil
}
