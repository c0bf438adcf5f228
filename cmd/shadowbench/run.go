package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shadowbench/internal/controller"
	"shadowbench/internal/modules"
	"shadowbench/internal/progress"
	"shadowbench/internal/ratelimit"
	"shadowbench/internal/report"
	"shadowbench/internal/session"
	"shadowbench/internal/trial"
	"shadowbench/internal/transport"
)

type runFlags struct {
	noModules bool
	simulate  bool
	quiet     bool
	delay     time.Duration
	results   string
	format    string
	table     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.simulate, "simulate", false, "populate results from the benchmark table instead of replaying")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "suppress progress output")
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "pause between trial submissions (overrides trials.delay)")
	cmd.Flags().StringVar(&f.results, "results", "", "results file (overrides output.results)")
	cmd.Flags().StringVar(&f.format, "format", "", "results format: text, json, csv (overrides output.format)")
	cmd.Flags().StringVar(&f.table, "table", "", "benchmark table YAML (overrides trials.table)")
}

// apply copies explicitly set flags over the configuration.
func (f *runFlags) apply(cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	if cmd.Flags().Changed("simulate") {
		cfg.Trials.Simulate = f.simulate
	}
	if cmd.Flags().Changed("delay") {
		cfg.Trials.Delay = f.delay
	}
	if cmd.Flags().Changed("results") {
		cfg.Output.Results = f.results
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = f.format
	}
	if cmd.Flags().Changed("table") {
		cfg.Trials.Table = f.table
	}
	if cmd.Flags().Changed("no-modules") {
		cfg.Modules.Skip = f.noModules
	}
	return cfg.Validate()
}

func newRunCmd(a *app) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the fault injection modules, replay the benchmark and persist the results",
		Long: `Run performs a complete session: kernel modules are loaded, the benchmark
table is replayed against the fault controller, results are written to the
results file and the modules are unloaded again.

Commands go to the pseudo-file the fault injection module creates
(channel.proc_path). With --no-modules the session runs against an
in-process controller and needs no privileges.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, a); err != nil {
				return err
			}
			opts, cleanup, err := a.sessionOptions(cmd.ErrOrStderr(), flags.quiet || !isatty.IsTerminal(os.Stderr.Fd()))
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := a.cfg
			if cfg.Modules.Skip {
				ctrl := controller.New(controller.WithLogger(a.log), controller.WithSimulationTable(opts.Table))
				if err := ctrl.Start(); err != nil {
					return err
				}
				defer ctrl.Stop()
				opts.Connect = func(context.Context) (session.Target, error) {
					return session.Local(ctrl), nil
				}
			} else {
				opts.CheckPrivileges = modules.RequireRoot
				opts.Loader = modules.KernelLoader{}
				opts.Modules = modules.FromConfig(cfg.Modules)
				opts.ReadyPath = cfg.Channel.ProcPath
				opts.ReadyTimeout = cfg.Modules.ReadyTimeout
				opts.Connect = func(context.Context) (session.Target, error) {
					pf, err := transport.OpenProcFile(cfg.Channel.ProcPath)
					if err != nil {
						return nil, err
					}
					return pf, nil
				}
			}
			return a.runSession(cmd, opts)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.noModules, "no-modules", false, "skip kernel modules and use an in-process controller (overrides modules.skip)")
	return cmd
}

// sessionOptions builds the options shared by run and replay. Progress goes
// to w; cleanup stops it.
func (a *app) sessionOptions(w io.Writer, quiet bool) (session.Options, func(), error) {
	cfg := a.cfg
	table, err := a.table()
	if err != nil {
		return session.Options{}, nil, err
	}
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return session.Options{}, nil, err
	}

	limiter := ratelimit.NewDelayLimiter(cfg.Trials.Delay)
	prog := progress.NewProgress(table.Trials(), quiet || cfg.Trials.Simulate)
	prog.SetOutput(w)
	prog.Printf("Replaying %d trials, %v between submissions", table.Trials(), limiter.Delay())
	prog.Start()

	return session.Options{
		Table:       table,
		Limiter:     limiter,
		Simulate:    cfg.Trials.Simulate,
		ResultsPath: cfg.Output.Results,
		Format:      format,
		Observers:   []func(trial.Event){prog.Observe},
		Log:         a.log,
	}, prog.Stop, nil
}

// dialer connects to the line protocol socket of a running controller.
func (a *app) dialer() func(context.Context) (session.Target, error) {
	return func(ctx context.Context) (session.Target, error) {
		client, err := transport.Dial(ctx, "unix", a.cfg.Channel.Socket)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func (a *app) runSession(cmd *cobra.Command, opts session.Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := session.Run(ctx, opts)
	if res != nil && res.Report != "" {
		fmt.Fprint(cmd.OutOrStdout(), res.Report)
	}
	if err != nil {
		return fmt.Errorf("session %s: %w", res.ID, err)
	}
	if opts.ResultsPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Results written to %s\n", opts.ResultsPath)
	}
	return nil
}
