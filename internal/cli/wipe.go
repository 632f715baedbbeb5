package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWipeCommand creates the wipe command, the logout reset. A second
// user signing in on the same device must not be able to read or
// inherit the previous session's queued operations or cached reads.
func NewWipeCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Delete the session's queued operations and cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()

			if err := engine.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wiped scope %q\n", cfg.Scope)
			return nil
		},
	}
}
