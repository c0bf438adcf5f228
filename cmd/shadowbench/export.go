package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shadowbench/internal/report"
)

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <results-file>",
		Short: "Convert a results file to JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening results file: %w", err)
			}
			defer file.Close()

			records, err := report.Parse(file)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			a.log.WithField("records", len(records)).Debug("results parsed")
			return report.Write(cmd.OutOrStdout(), f, records)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(report.CSV), "output format: text, json, csv")
	return cmd
}
