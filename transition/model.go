// SPDX-License-Identifier: MIT

// Package transition - successor enumeration for one (state, action) pair.
//
// The Model turns the outcome support of a period into next-period states:
// each outcome is mapped to a final vector, the final is resolved to its
// canonical state, and mass reaching the same state is merged.
//
// Policies:
//   - Supports are truncated at the Tail quantiles and renormalized once per
//     period, then cached.
//   - Finals that the resolver rejects are dropped; the rest is renormalized.
//   - Sampled plans are seeded from (seed, state key, action key), so
//     Successors and Probability always see the same scenarios.
//
// Concurrency:
//   - Model is safe for concurrent use; the support cache is the only shared
//     mutable state and sits behind a mutex.
package transition

import (
	"errors"
	"fmt"
	"sync"

	"github.com/katalvlaran/sdp/sampling"
	"github.com/katalvlaran/sdp/state"
)

// DefaultTail is the default truncation tail of every distribution.
const DefaultTail = 1e-4

// DistributionFunc returns the distribution of the random outcome realized
// during a period (the period of the initial state).
type DistributionFunc func(period int) (Joint, error)

// PerPeriod returns a DistributionFunc indexed by period.
func PerPeriod(js ...Joint) DistributionFunc {
	return func(period int) (Joint, error) {
		if period < 0 || period >= len(js) || js[period] == nil {
			return nil, fmt.Errorf("%w: %d", ErrNoDistribution, period)
		}
		return js[period], nil
	}
}

// Stationary returns a DistributionFunc using j in every period.
func Stationary(j Joint) DistributionFunc {
	return func(int) (Joint, error) { return j, nil }
}

// Options configures a Model.
type Options struct {
	// Tail is the truncation tail for distribution supports, in (0, 0.5).
	Tail float64

	// Sampling selects a representative subset of outcomes per (state, action).
	Sampling sampling.Config

	// Seed drives SimpleRandom/Stratified scenario plans; 0 means sampling.DefaultSeed.
	Seed int64

	// Boundaries, when set, is the grid discretized distributions must match.
	Boundaries state.Boundaries
}

// DefaultOptions returns exact enumeration with DefaultTail.
func DefaultOptions() Options {
	return Options{Tail: DefaultTail}
}

// Validate checks the options.
func (o Options) Validate() error {
	if !(o.Tail > 0 && o.Tail < 0.5) {
		return fmt.Errorf("%w: %v", ErrBadTail, o.Tail)
	}

	return o.Sampling.Validate()
}

type support struct {
	outcomes []Outcome
	dim      int
	err      error
}

// Model enumerates successors and their probabilities. Safe for concurrent use.
type Model struct {
	dist    DistributionFunc
	outcome OutcomeFunc
	apply   ApplyFunc
	opts    Options
	conserv bool

	mu    sync.Mutex
	cache map[int]*support
}

// NewModel builds a Model. Nil outcome/apply select state conservation; a
// custom model must set both.
func NewModel(dist DistributionFunc, outcome OutcomeFunc, apply ApplyFunc, opts Options) (*Model, error) {
	if dist == nil {
		return nil, ErrNilDistribution
	}
	if (outcome == nil) != (apply == nil) {
		return nil, fmt.Errorf("%w: outcome and apply functions must be set together", ErrUnsupported)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := &Model{dist: dist, outcome: outcome, apply: apply, opts: opts, cache: make(map[int]*support)}
	if outcome == nil {
		m.outcome, m.apply, m.conserv = Conservation, ApplyConservation, true
	}

	return m, nil
}

// Options returns the model's options.
func (m *Model) Options() Options { return m.opts }

// Support returns the truncated outcome support of a period. The slice is
// cached and shared; callers must not modify it.
func (m *Model) Support(period int) ([]Outcome, error) {
	sup := m.support(period)

	return sup.outcomes, sup.err
}

func (m *Model) support(period int) *support {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sup, ok := m.cache[period]; ok {
		return sup
	}
	sup := &support{}
	j, err := m.dist(period)
	switch {
	case err != nil:
		sup.err = err
	case j == nil:
		sup.err = fmt.Errorf("%w: %d", ErrNoDistribution, period)
	default:
		sup.dim = j.Dim()
		if sup.err = checkSteps(j, m.opts.Boundaries); sup.err == nil {
			sup.outcomes, sup.err = j.Outcomes(m.opts.Tail)
		}
	}
	m.cache[period] = sup

	return sup
}

// Outcome returns the random outcome that turns (s, a) into final.
func (m *Model) Outcome(s *state.State, a state.Action, final state.Vector) state.Vector {
	return m.outcome(s, a, final)
}

// scenarios returns the (possibly sampled) outcomes of (s, a) with their weights.
func (m *Model) scenarios(s *state.State, a state.Action) ([]Outcome, error) {
	sup := m.support(s.Period())
	if sup.err != nil {
		return nil, sup.err
	}
	if m.conserv && (len(a.X) != len(s.X()) || sup.dim != len(s.X())) {
		return nil, fmt.Errorf("%w: state %d, action %d, outcome %d coordinates",
			state.ErrDimensionMismatch, len(s.X()), len(a.X), sup.dim)
	}

	policy := m.opts.Sampling
	k := policy.SizeAt(s.Period())
	if !policy.Enabled() || k >= len(sup.outcomes) {
		return sup.outcomes, nil
	}
	rng := sampling.Derive(m.opts.Seed, sampling.StreamOf(s.Key()+"|"+a.Key()))
	picks, err := sampling.Plan(policy.Scheme, len(sup.outcomes), k, rng)
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, len(picks))
	for i, p := range picks {
		w := sup.outcomes[p.Index].P
		if policy.Scheme == sampling.Stratified || policy.Scheme == sampling.Jensen {
			w = 0
			for _, o := range sup.outcomes[p.Lo:p.Hi] {
				w += o.P
			}
		}
		out[i] = Outcome{X: sup.outcomes[p.Index].X, P: w}
	}

	return out, nil
}

// Successors enumerates the successors of (s, a) in the next period.
// Finals rejected by resolve (out of bounds, or not available) are dropped;
// mass reaching the same canonical state is merged; probabilities are
// renormalized to sum to one. Order follows the outcome support.
//
// Errors: ErrNoSuccessors when nothing remains, distribution and resolver
// errors otherwise; all located at (period, state).
//
// Complexity: O(|support| · dim).
func (m *Model) Successors(s *state.State, a state.Action, resolve Resolver) ([]Transition, error) {
	scen, err := m.scenarios(s, a)
	if err != nil {
		return nil, state.Locate(s.Descriptor(), err)
	}

	var (
		out   = make([]Transition, 0, len(scen))
		index = make(map[*state.State]int, len(scen))
		total float64
	)
	for _, o := range scen {
		final := m.apply(s, a, o.X)
		next, ok, rerr := resolve(state.Descriptor{Period: s.Period() + 1, X: final})
		if rerr != nil {
			if errors.Is(rerr, state.ErrOutOfBounds) {
				continue
			}
			return nil, state.Locate(s.Descriptor(), rerr)
		}
		if !ok {
			continue
		}
		total += o.P
		if i, seen := index[next]; seen {
			out[i].P += o.P
			continue
		}
		index[next] = len(out)
		out = append(out, Transition{State: next, P: o.P})
	}
	if len(out) == 0 || !(total > 0) {
		return nil, state.Locate(s.Descriptor(), fmt.Errorf("%w: action %v", ErrNoSuccessors, a))
	}
	for i := range out {
		out[i].P /= total
	}

	return out, nil
}

// Probability returns the probability of moving from s to final under a.
// Outcomes outside the evaluated support yield 0 without resolving successors.
func (m *Model) Probability(s *state.State, a state.Action, final *state.State, resolve Resolver) (float64, error) {
	if final.Period() != s.Period()+1 {
		return 0, nil
	}
	scen, err := m.scenarios(s, a)
	if err != nil {
		return 0, state.Locate(s.Descriptor(), err)
	}
	omega := m.outcome(s, a, final.X())
	found := false
	for _, o := range scen {
		if o.X.Equal(omega) {
			found = true
			break
		}
	}
	if !found {
		return 0, nil
	}

	succ, err := m.Successors(s, a, resolve)
	if err != nil {
		return 0, err
	}
	for _, tr := range succ {
		if tr.State == final {
			return tr.P, nil
		}
	}

	return 0, nil
}
