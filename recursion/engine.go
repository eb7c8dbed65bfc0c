// SPDX-License-Identifier: MIT

package recursion

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/transition"
	"github.com/katalvlaran/sdp/value"
)

// Driver names reported in Stats, logs and metric labels.
const (
	DriverBackward = "backward"
	DriverForward  = "forward"
)

// engine wires the components shared by both drivers.
type engine struct {
	driver  string
	runID   uuid.UUID
	problem Problem
	opts    Options
	logger  *slog.Logger

	horizon *state.Horizon
	model   *transition.Model
	repo    *value.Repository

	generated atomic.Int64
	reused    atomic.Int64
	evaluated atomic.Int64
}

func newEngine(driver string, p Problem, opts Options) (*engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(p.Boundaries); err != nil {
		return nil, err
	}

	// Entries are keyed by state and action only, so a store carrying another
	// run's values would be read back as if they belonged to this problem.
	if opts.Store != nil {
		n, err := opts.Store.Len()
		if err != nil {
			return nil, fmt.Errorf("value store: %w", err)
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: %d entries", ErrStoreNotEmpty, n)
		}
	}

	h, err := state.NewHorizon(p.Horizon, state.Config{
		Boundaries:     p.Boundaries,
		Actions:        p.Actions,
		Idempotent:     p.Idempotent,
		ActionSampling: opts.ActionSampling,
		Seed:           opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("state space: %w", err)
	}
	m, err := transition.NewModel(p.Distribution, p.Outcome, p.Apply, transition.Options{
		Tail:       opts.Tail,
		Sampling:   opts.ScenarioSampling,
		Seed:       opts.Seed,
		Boundaries: p.Boundaries,
	})
	if err != nil {
		return nil, fmt.Errorf("transition model: %w", err)
	}
	repo, err := value.NewRepository(value.Config{
		Store:     opts.Store,
		Model:     m,
		Immediate: p.Immediate,
		Terminal:  p.Terminal,
		Discount:  opts.Discount,
		Direction: opts.Direction,
	})
	if err != nil {
		return nil, fmt.Errorf("value repository: %w", err)
	}

	id := uuid.New()
	return &engine{
		driver:  driver,
		runID:   id,
		problem: p,
		opts:    opts,
		logger:  opts.Logger.With(slog.String("run_id", id.String()), slog.String("driver", driver)),
		horizon: h,
		model:   m,
		repo:    repo,
	}, nil
}

// lookup resolves successors among materialized states only.
func (e *engine) lookup(d state.Descriptor) (*state.State, bool, error) {
	s, ok := e.horizon.Lookup(d)
	if ok {
		e.reused.Add(1)
		statesReused.WithLabelValues(e.driver).Inc()
	}

	return s, ok, nil
}

// create resolves successors, creating them on demand.
func (e *engine) create(d state.Descriptor) (*state.State, bool, error) {
	s, created, err := e.horizon.GetOrCreate(d)
	if err != nil {
		return nil, false, err
	}
	if created {
		e.generated.Add(1)
		statesGenerated.WithLabelValues(e.driver).Inc()
	} else {
		e.reused.Add(1)
		statesReused.WithLabelValues(e.driver).Inc()
	}

	return s, true, nil
}

func (e *engine) markEvaluated() {
	e.evaluated.Add(1)
	statesEvaluated.WithLabelValues(e.driver).Inc()
}

func (e *engine) solution(elapsed time.Duration, periods []time.Duration) *Solution {
	return &Solution{
		horizon: e.horizon,
		repo:    e.repo,
		stats: Stats{
			RunID:     e.runID,
			Driver:    e.driver,
			Generated: e.generated.Load(),
			Reused:    e.reused.Load(),
			Evaluated: e.evaluated.Load(),
			Elapsed:   elapsed,
			Periods:   periods,
		},
	}
}
