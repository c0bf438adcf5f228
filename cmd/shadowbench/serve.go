package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"shadowbench/internal/controller"
	"shadowbench/internal/transport"
)

func newServeCmd(a *app) *cobra.Command {
	var socket, httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a fault controller behind the command channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("socket") {
				cfg.Channel.Socket = socket
			}
			if cmd.Flags().Changed("http") {
				cfg.Channel.HTTPAddr = httpAddr
			}
			table, err := a.table()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ctrl := controller.New(
				controller.WithLogger(a.log),
				controller.WithRegistry(reg),
				controller.WithSimulationTable(table),
			)
			if err := ctrl.Start(); err != nil {
				return err
			}
			defer ctrl.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return transport.Serve(ctx, ctrl, transport.ServeConfig{
				Socket:   cfg.Channel.Socket,
				HTTPAddr: cfg.Channel.HTTPAddr,
			}, reg, a.log)
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "", "unix socket for the line protocol (overrides channel.socket)")
	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address (overrides channel.http_addr)")
	return cmd
}
