package main

import (
	"github.com/spf13/cobra"

	"github.com/JeffersonLab/rfClassifier/internal/config"
	"github.com/JeffersonLab/rfClassifier/internal/modelinfo"
)

func newDescribeCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the model description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := modelinfo.Load(config.LoadModel().DescriptionFile)
			if err != nil {
				return err
			}
			return d.Print(cmd.OutOrStdout(), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include the detailed description")
	return cmd
}
