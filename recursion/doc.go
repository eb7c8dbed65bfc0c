// SPDX-License-Identifier: MIT

// Package recursion solves finite-horizon stochastic dynamic programs.
//
// A Problem describes the grid, the admissible actions, the random outcome
// of every period and the immediate and terminal values. Two drivers solve it:
//
//   - Backward materializes the state space of every period (the full grid
//     or a sample of it), assigns terminal values, then sweeps periods
//     T-1 … 0, evaluating all states of a period in parallel. Successors are
//     looked up, never created; mass reaching unmaterialized states is
//     dropped and the remainder renormalized.
//   - SolveForward starts from one initial state and descends depth-first,
//     creating successors on demand and memoizing every solved state.
//
// Both return a Solution answering optimal value, optimal action and
// expected value queries, together with run Stats. Runs are logged through
// log/slog, counted in Prometheus metrics and traced with OpenTelemetry spans.
package recursion
