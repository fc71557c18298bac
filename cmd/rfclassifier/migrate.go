package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JeffersonLab/rfClassifier/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := store.RunMigrations(cfg.Database.URL); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			log.Info("database migrations applied")
			return nil
		},
	}
}
