// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/sdp/config"
	"github.com/katalvlaran/sdp/models/gambler"
	"github.com/katalvlaran/sdp/models/inventory"
	"github.com/katalvlaran/sdp/recursion"
	"github.com/katalvlaran/sdp/state"
)

// fileConfig is the layout of the YAML file given with --config.
type fileConfig struct {
	Engine    config.Engine    `yaml:"engine"`
	Inventory inventory.Config `yaml:"inventory"`
	Gambler   gambler.Config   `yaml:"gambler"`
}

// app carries what every subcommand needs after flag parsing.
type app struct {
	configPath string
	driver     string
	noColor    bool
	logLevel   string
	truncate   bool

	cfg    fileConfig
	logger *slog.Logger
	au     aurora.Aurora
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sdp",
		Short:         "Solve finite-horizon stochastic dynamic programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.driver, "driver", recursion.DriverBackward, "recursion driver: backward or forward")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&a.truncate, "truncate", false, "drop values a persistent store kept from an earlier run")

	root.AddCommand(newInventoryCmd(a), newGamblerCmd(a))

	return root
}

// load reads the file (if any), applies SDP_* overrides and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	a.cfg = fileConfig{
		Engine:    config.Default(),
		Inventory: inventory.Default(),
		Gambler:   gambler.Default(),
	}
	if a.configPath != "" {
		if err := config.Load(a.configPath, &a.cfg); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(&a.cfg.Engine); err != nil {
		return err
	}
	if a.logLevel != "" {
		a.cfg.Engine.LogLevel = a.logLevel
	}
	if a.truncate {
		a.cfg.Engine.Store.Truncate = true
	}
	if err := a.cfg.Engine.Validate(); err != nil {
		return err
	}
	a.driver = strings.ToLower(a.driver)
	switch a.driver {
	case recursion.DriverBackward, recursion.DriverForward:
	default:
		return fmt.Errorf("unknown driver %q", a.driver)
	}

	logger, err := config.NewLogger(a.cfg.Engine.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	a.au = aurora.NewAurora(!a.noColor)

	return nil
}

// solve runs the selected driver with the configured engine settings and
// hands the solution to report while the value store is still open.
func (a *app) solve(ctx context.Context, p recursion.Problem, initial state.Vector, report func(*recursion.Solution) error) error {
	opts, err := a.cfg.Engine.Options(a.logger)
	if err != nil {
		return err
	}
	st, err := a.cfg.Engine.OpenStore(a.logger)
	if err != nil {
		return err
	}
	defer st.Close()
	opts.Store = st

	var sol *recursion.Solution
	if a.driver == recursion.DriverForward {
		sol, err = recursion.SolveForward(ctx, p, initial, opts)
	} else {
		sol, err = recursion.SolveBackward(ctx, p, opts)
	}
	if err != nil {
		return err
	}

	return report(sol)
}
