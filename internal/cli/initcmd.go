package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(_ *RootOptions) *cobra.Command {
	var server, db, scope string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fresh configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()
			cfg.Server = server
			cfg.DB = db
			cfg.Scope = scope
			if err := SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "backend base URL")
	cmd.Flags().StringVar(&db, "db", "", "path to the local store (default ~/.chantier/offline.db)")
	cmd.Flags().StringVar(&scope, "scope", "default", "session scope")

	return cmd
}
