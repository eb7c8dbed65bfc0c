// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/sdp/models/inventory"
	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/state"
)

func newInventoryCmd(a *app) *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Solve the lot-sizing model and print its (s,S) policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Inventory
			p, err := cfg.Problem()
			if err != nil {
				return err
			}
			initial := state.Vector{cfg.InitialInventory}

			return a.solve(cmd.Context(), p, initial, func(sol *recursion.Solution) error {
				w := cmd.OutOrStdout()
				root := state.Descriptor{Period: 0, X: initial}
				e, err := sol.Optimal(root)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s stock=%d expected cost=%s order=%v\n",
					a.au.Bold("initial"), cfg.InitialInventory, a.au.Cyan(fmt.Sprintf("%.4f", e.Value)), e.Action)

				if a.driver == recursion.DriverBackward {
					for t := 0; t < sol.Horizon(); t++ {
						pol, err := inventory.ReorderPolicy(sol, t, from, to)
						switch {
						case errors.Is(err, inventory.ErrNotSS):
							fmt.Fprintf(w, "  period %d  %s\n", t, a.au.Red(err.Error()))
						case err != nil:
							return err
						default:
							fmt.Fprintf(w, "  period %d  s=%d S=%d\n", t,
								a.au.Green(pol.Reorder), a.au.Green(pol.OrderUpTo))
						}
					}
				}
				printStats(w, a.au, sol.Stats())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&from, "from", -20, "lowest stock level scanned for the (s,S) policy")
	cmd.Flags().IntVar(&to, "to", 100, "highest stock level scanned for the (s,S) policy")

	return cmd
}
