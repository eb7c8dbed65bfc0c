// SPDX-License-Identifier: MIT

// File: forward.go
// Role: memoized depth-first recursion from a single initial state.
//
// Policies:
//   - Successors are created on demand; only reachable states exist.
//   - A state is solved once: the repository is checked before and again
//     inside a singleflight call keyed by the state key.
//   - Waiting on a singleflight call always targets a later period, so the
//     descent cannot wait on itself.
package recursion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/value"
)

// forward is the memoized depth-first driver.
type forward struct {
	*engine
	group singleflight.Group
}

// SolveForward solves the problem reachable from Descriptor{0, initial}.
// Successors are created on demand and every state is solved at most once.
// With Workers > 1 the successors of the initial state are solved in
// parallel before the initial state itself.
func SolveForward(ctx context.Context, p Problem, initial state.Vector, opts Options) (sol *Solution, err error) {
	e, err := newEngine(DriverForward, p, opts)
	if err != nil {
		return nil, err
	}
	f := &forward{engine: e}

	ctx, span := startSpan(ctx, "Forward.Solve",
		attribute.String("run_id", f.runID.String()),
		attribute.Int("horizon", p.Horizon))
	defer func() {
		if err != nil {
			f.logger.Error("forward recursion failed", slog.String("error", err.Error()))
		}
		endSpan(span, f.driver, err)
	}()

	start := time.Now()
	root, _, err := f.create(state.Descriptor{Period: 0, X: initial})
	if err != nil {
		return nil, err
	}
	if f.opts.Workers > 1 {
		if err := f.fanOut(ctx, root); err != nil {
			return nil, err
		}
	}
	if _, err := f.solve(ctx, root); err != nil {
		return nil, err
	}

	sol = f.solution(time.Since(start), nil)
	f.logger.Info("forward recursion done",
		slog.Int64("generated", sol.stats.Generated),
		slog.Int64("reused", sol.stats.Reused),
		slog.Int64("evaluated", sol.stats.Evaluated),
		slog.Duration("elapsed", sol.stats.Elapsed))

	return sol, nil
}

// fanOut solves the distinct successors of root across workers.
func (f *forward) fanOut(ctx context.Context, root *state.State) error {
	if root.Period() >= f.horizon.Terminal() {
		return nil
	}
	actions, err := root.Actions()
	if err != nil {
		return err
	}
	seen := make(map[*state.State]struct{})
	var next []*state.State
	for _, a := range actions {
		succ, err := f.model.Successors(root, a, f.create)
		if err != nil {
			return err
		}
		for _, tr := range succ {
			if _, ok := seen[tr.State]; !ok {
				seen[tr.State] = struct{}{}
				next = append(next, tr.State)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for _, s := range next {
		g.Go(func() error {
			_, err := f.solve(gctx, s)
			return err
		})
	}

	return g.Wait()
}

// solve returns the optimal value of s, computing it once.
func (f *forward) solve(ctx context.Context, s *state.State) (float64, error) {
	d := s.Descriptor()
	if v, err := f.repo.OptimalValue(d); err == nil {
		return v, nil
	} else if !errors.Is(err, value.ErrMissingEntry) {
		return 0, err
	}

	v, err, _ := f.group.Do(s.Key(), func() (any, error) {
		if v, err := f.repo.OptimalValue(d); err == nil {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			return 0.0, err
		}
		if s.Period() == f.horizon.Terminal() {
			e, err := f.repo.SetTerminal(s)
			return e.Value, err
		}
		e, err := f.repo.Optimize(s, f.create, func(n *state.State) (float64, error) {
			return f.solve(ctx, n)
		})
		if err != nil {
			return 0.0, err
		}
		f.markEvaluated()
		if err := f.repo.SetOptimal(s, e); err != nil {
			return 0.0, err
		}
		return e.Value, nil
	})
	if err != nil {
		return 0, err
	}

	return v.(float64), nil
}
