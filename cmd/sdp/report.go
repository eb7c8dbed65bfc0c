// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"

	"github.com/katalvlaran/sdp/recursion"
)

// printStats writes the run telemetry: elapsed time, state counts and the
// per-period processing times of a backward run.
func printStats(w io.Writer, au aurora.Aurora, st recursion.Stats) {
	fmt.Fprintf(w, "%s %s (%s)\n", au.Bold("run"), st.RunID, st.Driver)
	fmt.Fprintf(w, "  elapsed    %s\n", st.Elapsed)
	fmt.Fprintf(w, "  generated  %d\n", st.Generated)
	fmt.Fprintf(w, "  reused     %d\n", st.Reused)
	fmt.Fprintf(w, "  evaluated  %d\n", st.Evaluated)
	for t, d := range st.Periods {
		fmt.Fprintf(w, "  period %-3d %s\n", t, d)
	}
}
