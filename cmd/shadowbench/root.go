package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shadowbench/internal/benchmark"
	"shadowbench/internal/config"
)

// app holds state shared by every subcommand once the root pre-run has
// loaded the configuration.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.StandardLogger()}

	root := &cobra.Command{
		Use:           "shadowbench",
		Short:         "Fault injection harness for shadow driver recovery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newReplayCmd(a),
		newSimulateCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.log.SetLevel(level)
	a.log.SetOutput(cmd.ErrOrStderr())
	a.cfg = cfg
	return nil
}

// table returns the configured benchmark table, or the built-in one.
func (a *app) table() (benchmark.Table, error) {
	if a.cfg.Trials.Table == "" {
		return benchmark.Default(), nil
	}
	return benchmark.LoadTable(a.cfg.Trials.Table)
}
