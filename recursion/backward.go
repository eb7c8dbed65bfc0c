// SPDX-License-Identifier: MIT

// File: backward.go
// Role: backward induction over whole periods.
//
// Phases:
//   - GeneratingStates: one goroutine per period drains its iterator; the
//     terminal period receives boundary values. All periods join before
//     processing starts.
//   - ProcessingPeriod: periods T-1 down to 0, each one evaluated by up to
//     Workers goroutines. Period t reads only optimal values of period t+1.
//
// Policies:
//   - Successors are looked up, never created; unsampled finals are dropped.
//   - The first error cancels the run and leaves the driver in Failed.
//   - A driver runs once.
package recursion

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/sdp/sampling"
	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/value"
)

// Phase is the lifecycle stage of a Backward driver.
type Phase int32

const (
	// Idle is the stage before Run.
	Idle Phase = iota

	// GeneratingStates materializes every period space.
	GeneratingStates

	// ProcessingPeriod sweeps periods T-1 … 0.
	ProcessingPeriod

	// Done means a Solution is available.
	Done

	// Failed means Run returned an error.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case GeneratingStates:
		return "generating_states"
	case ProcessingPeriod:
		return "processing_period"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Backward is the backward recursion driver. A driver runs once.
type Backward struct {
	*engine
	phase   atomic.Int32
	started atomic.Bool
	sol     atomic.Pointer[Solution]
}

// NewBackward validates the problem and options and prepares a driver.
func NewBackward(p Problem, opts Options) (*Backward, error) {
	e, err := newEngine(DriverBackward, p, opts)
	if err != nil {
		return nil, err
	}

	return &Backward{engine: e}, nil
}

// SolveBackward builds a Backward driver and runs it.
func SolveBackward(ctx context.Context, p Problem, opts Options) (*Solution, error) {
	b, err := NewBackward(p, opts)
	if err != nil {
		return nil, err
	}
	if err := b.Run(ctx); err != nil {
		return nil, err
	}

	return b.Solution(), nil
}

// Phase returns the current stage.
func (b *Backward) Phase() Phase { return Phase(b.phase.Load()) }

// Solution returns the result once the driver is Done, nil before.
func (b *Backward) Solution() *Solution { return b.sol.Load() }

func (b *Backward) setPhase(p Phase) {
	b.phase.Store(int32(p))
	b.logger.Debug("phase", slog.String("phase", p.String()))
}

// Run generates the state spaces, assigns terminal values and sweeps the
// periods backwards. The first error (or context cancellation) fails the run.
func (b *Backward) Run(ctx context.Context) (err error) {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	ctx, span := startSpan(ctx, "Backward.Run",
		attribute.String("run_id", b.runID.String()),
		attribute.Int("horizon", b.problem.Horizon))
	defer func() {
		if err != nil {
			b.setPhase(Failed)
			b.logger.Error("backward recursion failed", slog.String("error", err.Error()))
		}
		endSpan(span, b.driver, err)
	}()

	start := time.Now()
	b.setPhase(GeneratingStates)
	if err := b.generate(ctx); err != nil {
		return err
	}

	b.setPhase(ProcessingPeriod)
	T := b.horizon.Terminal()
	periods := make([]time.Duration, T)
	for t := T - 1; t >= 0; t-- {
		d, err := b.process(ctx, t)
		if err != nil {
			return err
		}
		periods[t] = d
	}

	sol := b.solution(time.Since(start), periods)
	b.sol.Store(sol)
	b.setPhase(Done)
	b.logger.Info("backward recursion done",
		slog.Int64("generated", sol.stats.Generated),
		slog.Int64("reused", sol.stats.Reused),
		slog.Int64("evaluated", sol.stats.Evaluated),
		slog.Duration("elapsed", sol.stats.Elapsed))

	return nil
}

// generate drains one iterator per period concurrently and assigns the
// terminal values of period T.
func (b *Backward) generate(ctx context.Context) error {
	ctx, span := startSpan(ctx, "Backward.generate")
	defer span.End()

	T := b.horizon.Terminal()
	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t <= T; t++ {
		g.Go(func() error {
			sp, err := b.horizon.Space(t)
			if err != nil {
				return err
			}
			it := sp.Iterator(b.opts.StateSampling, sampling.Derive(b.opts.Seed, uint64(t)))
			for it.Next() {
				if err := gctx.Err(); err != nil {
					return err
				}
				if t == T {
					if _, err := b.repo.SetTerminal(it.State()); err != nil {
						return err
					}
				}
			}
			if err := it.Err(); err != nil {
				return fmt.Errorf("generate period %d: %w", t, err)
			}
			n := int64(sp.Len())
			b.generated.Add(n)
			statesGenerated.WithLabelValues(b.driver).Add(float64(n))
			b.logger.Debug("period generated", slog.Int("period", t), slog.Int64("states", n))
			return nil
		})
	}

	return g.Wait()
}

// process evaluates every state of period t against the finished period t+1.
func (b *Backward) process(ctx context.Context, t int) (time.Duration, error) {
	ctx, span := startSpan(ctx, "Backward.process", attribute.Int("period", t))
	defer span.End()

	start := time.Now()
	sp, err := b.horizon.Space(t)
	if err != nil {
		return 0, err
	}
	cont := b.repo.Recorded()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for _, s := range sp.States() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return b.evaluate(s, cont)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d := time.Since(start)
	periodDuration.WithLabelValues(b.driver).Observe(d.Seconds())
	b.logger.Debug("period processed", slog.Int("period", t), slog.Int("states", sp.Len()), slog.Duration("elapsed", d))

	return d, nil
}

func (b *Backward) evaluate(s *state.State, cont value.Continuation) error {
	e, err := b.repo.Optimize(s, b.lookup, cont)
	if err != nil {
		return err
	}
	b.markEvaluated()

	return b.repo.SetOptimal(s, e)
}
