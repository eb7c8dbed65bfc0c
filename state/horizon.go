// SPDX-License-Identifier: MIT

package state

import "fmt"

// Horizon holds one Space per period 0..T, where T is the terminal period.
type Horizon struct {
	cfg    *Config
	spaces []*Space
}

// NewHorizon validates cfg and allocates empty spaces for periods 0..terminal.
func NewHorizon(terminal int, cfg Config) (*Horizon, error) {
	if terminal < 0 {
		return nil, fmt.Errorf("%w: terminal period %d", ErrPeriodOutOfRange, terminal)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shared := cfg
	h := &Horizon{cfg: &shared, spaces: make([]*Space, terminal+1)}
	for t := range h.spaces {
		h.spaces[t] = newSpace(t, h.cfg)
	}

	return h, nil
}

// Terminal returns the index of the last (boundary) period.
func (h *Horizon) Terminal() int { return len(h.spaces) - 1 }

// Boundaries returns the grid definition.
func (h *Horizon) Boundaries() Boundaries { return h.cfg.Boundaries }

// Space returns the space of a period.
func (h *Horizon) Space(period int) (*Space, error) {
	if period < 0 || period >= len(h.spaces) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrPeriodOutOfRange, period, h.Terminal())
	}

	return h.spaces[period], nil
}

// Lookup returns the canonical state of d without creating it.
func (h *Horizon) Lookup(d Descriptor) (*State, bool) {
	if d.Period < 0 || d.Period >= len(h.spaces) {
		return nil, false
	}

	return h.spaces[d.Period].Lookup(d.X)
}

// GetOrCreate returns the canonical state of d, creating it when absent.
func (h *Horizon) GetOrCreate(d Descriptor) (*State, bool, error) {
	sp, err := h.Space(d.Period)
	if err != nil {
		return nil, false, Locate(d, err)
	}

	return sp.GetOrCreate(d.X)
}

// Len returns the total number of states across all periods.
func (h *Horizon) Len() int {
	n := 0
	for _, sp := range h.spaces {
		n += sp.Len()
	}

	return n
}
