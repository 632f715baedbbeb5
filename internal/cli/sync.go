package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stardustchris/Hub-Chantier-sub007/offline"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(_ *RootOptions) *cobra.Command {
	var offlineFlag bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconcile pass against the configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, closer, err := openEngine(cmd.Context(), !offlineFlag)
			if err != nil {
				return err
			}
			defer closer()

			if !offlineFlag && cfg.Server == "" {
				return fmt.Errorf("no server configured, run 'chantier init --server URL'")
			}

			client := offline.NewAPIClient(offline.ClientConfig{
				BaseURL:   cfg.Server,
				AuthToken: cfg.Token,
			})
			res := engine.Reconcile(cmd.Context(), client.SyncFunc())
			fmt.Fprintf(cmd.OutOrStdout(), "success: %d  failed: %d  remaining: %d\n",
				res.Success, res.Failed, engine.Queue.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&offlineFlag, "offline", false, "treat the connection as down (pass is a no-op)")
	return cmd
}
