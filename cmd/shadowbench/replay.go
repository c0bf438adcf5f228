package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shadowbench/internal/modules"
)

func newReplayCmd(a *app) *cobra.Command {
	var flags runFlags
	var socket string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the benchmark table against a controller served on a socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, a); err != nil {
				return err
			}
			if cmd.Flags().Changed("socket") {
				a.cfg.Channel.Socket = socket
			}

			if err := modules.WaitReady(cmd.Context(), a.cfg.Channel.Socket, a.cfg.Modules.ReadyTimeout); err != nil {
				return err
			}

			opts, cleanup, err := a.sessionOptions(cmd.ErrOrStderr(), flags.quiet || !isatty.IsTerminal(os.Stderr.Fd()))
			if err != nil {
				return err
			}
			defer cleanup()
			opts.Connect = a.dialer()
			return a.runSession(cmd, opts)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&socket, "socket", "", "controller socket (overrides channel.socket)")
	return cmd
}
