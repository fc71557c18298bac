package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/JeffersonLab/rfClassifier/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		output   string
		noHeader bool
	)
	cmd := &cobra.Command{
		Use:   "analyze EVENT...",
		Short: "Classify fault events given as absolute paths to their waveform directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, events []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := newApp(cmd.Context(), cfg, log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.service.AnalyzeBatch(cmd.Context(), events)
			return report.Write(cmd.OutOrStdout(), format, records, report.Options{NoHeader: noHeader})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(report.FormatTable), "output format: table or json")
	cmd.Flags().BoolVarP(&noHeader, "no-header", "n", false, "omit the results table header")
	return cmd
}
