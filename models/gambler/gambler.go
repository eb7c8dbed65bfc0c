// SPDX-License-Identifier: MIT

// Package gambler is the gambler's ruin model: a player holding x chips
// stakes b <= min(x, target-x) on a bet won with probability p, and wants to
// maximize the probability of reaching the target within a fixed number of
// bets. Ruin (0) and the target are absorbing.
package gambler

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/transition"
)

// ErrBadConfig indicates invalid model parameters.
var ErrBadConfig = errors.New("gambler: invalid configuration")

// Config holds the model parameters.
type Config struct {
	Target         int     `yaml:"target"`
	WinProbability float64 `yaml:"win_probability"`
	Bets           int     `yaml:"bets"`
	InitialWealth  int     `yaml:"initial_wealth"`
}

// Default returns a subfair game: target 10, p = 0.4, 6 bets, 5 chips.
func Default() Config {
	return Config{Target: 10, WinProbability: 0.4, Bets: 6, InitialWealth: 5}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	switch {
	case c.Target < 1:
		return fmt.Errorf("%w: target %d", ErrBadConfig, c.Target)
	case !(c.WinProbability > 0 && c.WinProbability < 1):
		return fmt.Errorf("%w: win_probability %v", ErrBadConfig, c.WinProbability)
	case c.Bets < 1:
		return fmt.Errorf("%w: bets %d", ErrBadConfig, c.Bets)
	case c.InitialWealth < 0 || c.InitialWealth > c.Target:
		return fmt.Errorf("%w: initial_wealth %d outside [0, %d]", ErrBadConfig, c.InitialWealth, c.Target)
	}

	return nil
}

// Problem builds the recursion problem. The outcome is the coin (-1 or +1)
// and the final wealth is x + b·outcome, so Outcome and Apply replace the
// default state conservation.
func (c Config) Problem() (recursion.Problem, error) {
	if err := c.Validate(); err != nil {
		return recursion.Problem{}, err
	}
	coin, err := transition.NewCategorical([]int{-1, 1}, []float64{1 - c.WinProbability, c.WinProbability})
	if err != nil {
		return recursion.Problem{}, err
	}

	return recursion.Problem{
		Horizon:      c.Bets,
		Boundaries:   state.Interval(0, c.Target),
		Actions:      c.stakes,
		Idempotent:   func(*state.State) state.Action { return state.NewAction(0) },
		Immediate:    func(*state.State, state.Action, *state.State) float64 { return 0 },
		Terminal:     c.reached,
		Distribution: transition.Stationary(transition.Univariate{D: coin}),
		Outcome:      outcome,
		Apply:        apply,
	}, nil
}

// stakes lists b = 1 … min(x, target-x). Absorbing states get none and fall
// back to the idempotent zero stake.
func (c Config) stakes(s *state.State) ([]state.Action, error) {
	x := s.X()[0]
	var out []state.Action
	for b := 1; b <= min(x, c.Target-x); b++ {
		out = append(out, state.NewAction(b))
	}

	return out, nil
}

func (c Config) reached(s *state.State) float64 {
	if s.X()[0] == c.Target {
		return 1
	}

	return 0
}

func outcome(s *state.State, _ state.Action, final state.Vector) state.Vector {
	if final[0] < s.X()[0] {
		return state.Vector{-1}
	}

	return state.Vector{1}
}

func apply(s *state.State, a state.Action, o state.Vector) state.Vector {
	return state.Vector{s.X()[0] + a.X[0]*o[0]}
}
