package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stardustchris/Hub-Chantier-sub007/offline"
)

// NewQueueCommand creates the queue command group.
func NewQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and mutate the offline queue",
	}
	cmd.AddCommand(newQueueAddCommand(opts))
	cmd.AddCommand(newQueueListCommand(opts))
	cmd.AddCommand(newQueueRemoveCommand(opts))
	cmd.AddCommand(newQueueClearCommand(opts))
	return cmd
}

func newQueueAddCommand(_ *RootOptions) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "add <create|update|delete> <endpoint> <method>",
		Short: "Queue a mutation for later replay",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := offline.OpKind(args[0])
			switch kind {
			case offline.OpCreate, offline.OpUpdate, offline.OpDelete:
			default:
				return fmt.Errorf("unknown operation kind %q", args[0])
			}
			var body any
			if payload != "" {
				raw := json.RawMessage(payload)
				if !json.Valid(raw) {
					return fmt.Errorf("payload is not valid JSON")
				}
				body = raw
			}

			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()

			id, err := engine.Queue.Enqueue(cmd.Context(), kind, args[1], args[2], body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "JSON payload to replay")
	return cmd
}

func newQueueListCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending items, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()

			for _, it := range engine.Queue.Items() {
				ts := time.UnixMilli(it.Timestamp).Format(time.RFC3339)
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-6s %-6s %s  retries=%d\n",
					it.ID, ts, it.Kind, it.Method, it.Endpoint, it.RetryCount)
			}
			return nil
		},
	}
}

func newQueueRemoveCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Drop one pending item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()
			return engine.Queue.Remove(cmd.Context(), args[0])
		},
	}
}

func newQueueClearCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all pending items and the persisted blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closer, err := openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closer()
			return engine.Queue.Clear(cmd.Context())
		},
	}
}
