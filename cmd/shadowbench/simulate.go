package main

import (
	"github.com/spf13/cobra"

	"shadowbench/internal/controller"
	"shadowbench/internal/report"
)

func newSimulateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Print the report the benchmark table produces without injecting faults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			table, err := a.table()
			if err != nil {
				return err
			}

			ctrl := controller.New(controller.WithLogger(a.log), controller.WithSimulationTable(table))
			if err := ctrl.Start(); err != nil {
				return err
			}
			defer ctrl.Stop()

			if err := ctrl.Simulate(); err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), f, ctrl.Snapshot())
		},
	}
	cmd.Flags().StringVar(&format, "format", string(report.Text), "output format: text, json, csv")
	return cmd
}
