// SPDX-License-Identifier: MIT

package recursion

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/transition"
	"github.com/katalvlaran/sdp/value"
)

// Stats summarizes a run.
type Stats struct {
	// RunID identifies the run in logs and traces.
	RunID uuid.UUID

	// Driver is DriverBackward or DriverForward.
	Driver string

	// Generated counts states created across all periods.
	Generated int64

	// Reused counts successor resolutions that hit an existing state.
	Reused int64

	// Evaluated counts states whose optimal action was computed.
	Evaluated int64

	// Elapsed is the wall time of the run.
	Elapsed time.Duration

	// Periods holds the processing time of each period (backward only).
	Periods []time.Duration
}

// Solution answers policy queries over a finished run.
type Solution struct {
	horizon *state.Horizon
	repo    *value.Repository
	stats   Stats
}

// Horizon returns the number of decision periods T.
func (s *Solution) Horizon() int { return s.horizon.Terminal() }

// Stats returns the run summary.
func (s *Solution) Stats() Stats { return s.stats }

// State returns the canonical state of d, if the run created it.
func (s *Solution) State(d state.Descriptor) (*state.State, bool) {
	return s.horizon.Lookup(d)
}

// States returns the states of a period ordered by grid index.
func (s *Solution) States(period int) ([]*state.State, error) {
	sp, err := s.horizon.Space(period)
	if err != nil {
		return nil, err
	}

	return sp.States(), nil
}

// Optimal returns the optimal value and action of d.
func (s *Solution) Optimal(d state.Descriptor) (value.Entry, error) {
	return s.repo.Optimal(d)
}

// OptimalValue returns the optimal value of d.
func (s *Solution) OptimalValue(d state.Descriptor) (float64, error) {
	return s.repo.OptimalValue(d)
}

// OptimalAction returns the optimal action of d.
func (s *Solution) OptimalAction(d state.Descriptor) (state.Action, error) {
	return s.repo.OptimalAction(d)
}

// ExpectedValue returns the expected value of taking a in d. Values computed
// during the run are returned as is; others are evaluated against the solved
// next period.
func (s *Solution) ExpectedValue(d state.Descriptor, a state.Action) (float64, error) {
	if v, ok, err := s.repo.Expected(d, a); err != nil || ok {
		return v, err
	}
	st, err := s.decisionState(d)
	if err != nil {
		return 0, err
	}

	return s.repo.ExpectedValue(st, a, s.lookup, s.repo.Recorded())
}

// Successors returns the transition distribution of (d, a) over the states
// the run created.
func (s *Solution) Successors(d state.Descriptor, a state.Action) ([]transition.Transition, error) {
	st, err := s.decisionState(d)
	if err != nil {
		return nil, err
	}

	return s.repo.Model().Successors(st, a, s.lookup)
}

func (s *Solution) decisionState(d state.Descriptor) (*state.State, error) {
	if d.Period < 0 || d.Period >= s.horizon.Terminal() {
		return nil, state.Locate(d, fmt.Errorf("%w: %d is not a decision period", state.ErrPeriodOutOfRange, d.Period))
	}
	st, ok := s.horizon.Lookup(d)
	if !ok {
		return nil, state.Locate(d, ErrUnknownState)
	}

	return st, nil
}

func (s *Solution) lookup(d state.Descriptor) (*state.State, bool, error) {
	st, ok := s.horizon.Lookup(d)
	return st, ok, nil
}
