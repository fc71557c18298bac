package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	appName    = "rf_classifier"
	appVersion = "2.0.0"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rfclassifier",
		Short:         "Classify C100 RF cavity fault events",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", appName, appVersion)
			return err
		},
	}
	root.SetVersionTemplate(appName + " v{{.Version}}\n")

	root.AddCommand(
		newDescribeCmd(),
		newAnalyzeCmd(),
		newServeCmd(),
		newMigrateCmd(),
		newKeysCmd(),
		newModesCmd(),
	)
	return root
}
