package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue length, cache size and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scope:    %s\n", cfg.Scope)
			if cfg.Redis != "" {
				fmt.Fprintf(out, "store:    redis %s\n", cfg.Redis)
			} else {
				fmt.Fprintf(out, "store:    %s\n", cfg.DB)
			}
			if cfg.Server != "" {
				fmt.Fprintf(out, "server:   %s\n", cfg.Server)
			} else {
				fmt.Fprintf(out, "server:   (not configured)\n")
			}
			fmt.Fprintf(out, "queued:   %d\n", engine.Queue.Len())
			fmt.Fprintf(out, "cached:   %d\n", engine.Cache.Len())
			return nil
		},
	}
}
