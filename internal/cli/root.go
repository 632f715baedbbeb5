package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/stardustchris/Hub-Chantier-sub007/offline"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the chantier CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chantier",
		Short: "Offline persistence engine for Hub Chantier",
		Long: `chantier manages the offline queue and cache of the Hub Chantier
field application: mutations queued while disconnected, encrypted at
rest, replayed against the backend once connectivity returns.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewWipeCommand(opts))

	return cmd
}

// openEngine loads the config, opens the configured KV backend and
// assembles the engine. The returned closer releases the backend.
func openEngine(ctx context.Context, online bool) (*offline.Engine, *Config, func(), error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	var kv offline.KV
	closer := func() {}
	if cfg.Redis != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis})
		kv = offline.NewRedisKV(rdb)
		closer = func() { _ = rdb.Close() }
	} else {
		if err := EnsureConfigDir(); err != nil {
			return nil, nil, nil, err
		}
		skv, err := offline.OpenSQLiteKV(cfg.DB)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open store %s: %w", cfg.DB, err)
		}
		kv = skv
		closer = func() { _ = skv.Close() }
	}

	engine, err := offline.NewEngine(ctx, offline.Config{
		Secret: secret,
		Scope:  offline.Scope(cfg.Scope),
		KV:     kv,
		Online: online,
	})
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	return engine, cfg, closer, nil
}
