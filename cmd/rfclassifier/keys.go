package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JeffersonLab/rfClassifier/internal/apikey"
	"github.com/JeffersonLab/rfClassifier/internal/store"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newKeysCreateCmd())
	return cmd
}

// newKeysCreateCmd bootstraps keys, including the first admin key, without
// going through the API.
func newKeysCreateCmd() *cobra.Command {
	var scopes []string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an API key and print it once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw, err := apikey.Issue(args[0], scopes, 0)
			if err != nil {
				return err
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pool, st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := st.CreateAPIKey(cmd.Context(), key); err != nil {
				if errors.Is(err, store.ErrDuplicateKey) {
					return fmt.Errorf("an API key named %q already exists", key.Name)
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "id:     %s\nname:   %s\nscopes: %v\nkey:    %s\n",
				key.ID, key.Name, key.Scopes, raw)
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", []string{apikey.ScopeRead},
		"scopes to grant: read, analyze, admin")
	return cmd
}
