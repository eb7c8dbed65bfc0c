// Package recursion_test benchmarks both drivers on the small stock problem
// of recursion_test.go. Inputs are built outside the timer; only the solve is
// measured.
package recursion_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/sampling"
	"github.com/katalvlaran/sdp/state"
)

func BenchmarkSolveBackward(b *testing.B) {
	p := stockProblem(b, 8)
	opts := options(4)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := recursion.SolveBackward(context.Background(), p, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSolveBackward_Jensen(b *testing.B) {
	p := stockProblem(b, 8)
	opts := options(4)
	opts.StateSampling = sampling.Jensens(5, 1)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := recursion.SolveBackward(context.Background(), p, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSolveForward(b *testing.B) {
	p := stockProblem(b, 8)
	opts := options(4)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := recursion.SolveForward(context.Background(), p, state.Vector{0}, opts); err != nil {
			b.Fatal(err)
		}
	}
}
