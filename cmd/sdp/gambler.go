// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/state"
	"github.com/katalvlaran/sdp/value"
)

func newGamblerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gambler",
		Short: "Solve gambler's ruin (always maximizing) and print the optimal stakes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Gambler
			p, err := cfg.Problem()
			if err != nil {
				return err
			}
			initial := state.Vector{cfg.InitialWealth}
			a.cfg.Engine.Direction = value.Maximize.String()

			return a.solve(cmd.Context(), p, initial, func(sol *recursion.Solution) error {
				w := cmd.OutOrStdout()
				v, err := sol.OptimalValue(state.Descriptor{Period: 0, X: initial})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s wealth=%d P(reach %d)=%s\n",
					a.au.Bold("initial"), cfg.InitialWealth, cfg.Target, a.au.Cyan(fmt.Sprintf("%.6f", v)))

				// Stake table: one row per period, one column per wealth level.
				fmt.Fprintf(w, "%8s", "t\\x")
				for x := 0; x <= cfg.Target; x++ {
					fmt.Fprintf(w, "%4d", x)
				}
				fmt.Fprintln(w)
				for t := 0; t < sol.Horizon(); t++ {
					fmt.Fprintf(w, "%8d", t)
					for x := 0; x <= cfg.Target; x++ {
						act, err := sol.OptimalAction(state.Descriptor{Period: t, X: state.Vector{x}})
						if err != nil {
							fmt.Fprintf(w, "%4s", a.au.Gray(12, "."))
							continue
						}
						fmt.Fprintf(w, "%4d", a.au.Yellow(act.X[0]))
					}
					fmt.Fprintln(w)
				}
				printStats(w, a.au, sol.Stats())
				return nil
			})
		},
	}
}
