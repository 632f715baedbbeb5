package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and mutate the expiring read cache",
	}
	cmd.AddCommand(newCacheGetCommand(opts))
	cmd.AddCommand(newCacheSetCommand(opts))
	cmd.AddCommand(newCacheEvictCommand(opts))
	cmd.AddCommand(newCacheClearCommand(opts))
	return cmd
}

func newCacheGetCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()

			v, ok := engine.Cache.Get(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("cache miss for %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(v))
			return nil
		},
	}
}

func newCacheSetCommand(_ *RootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a value with a time-to-live",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := json.RawMessage(args[1])
			if !json.Valid(raw) {
				return fmt.Errorf("value is not valid JSON")
			}

			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()

			if ttl > 0 {
				return engine.Cache.PutTTL(cmd.Context(), args[0], raw, ttl)
			}
			return engine.Cache.Put(cmd.Context(), args[0], raw)
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "validity window (default 1h)")
	return cmd
}

func newCacheEvictCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evict <key>",
		Short: "Remove one cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()
			return engine.Cache.Evict(cmd.Context(), args[0])
		},
	}
}

func newCacheClearCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the whole cache and its persisted blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()
			return engine.Cache.Clear(cmd.Context())
		},
	}
}
