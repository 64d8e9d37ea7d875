package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the render queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAPI(func(api queueAPI, _ bool) error {
				stats, err := api.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				writeTable(cmd, []string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAPI(func(api queueAPI, viaDaemon bool) error {
				if !viaDaemon && !asJSON {
					fmt.Fprintln(cmd.ErrOrStderr(), "(daemon not running; using queue database)")
				}
				items, err := api.List(cmd.Context(), statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				writeTable(cmd,
					[]string{"ID", "Title", "Status", "Progress", "Review", "Updated", "Source"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed items (all failed items when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueAPI(func(api queueAPI, _ bool) error {
				updated, err := api.Retry(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d %s\n", updated, pluralItems(updated))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove idle queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && failed {
				return fmt.Errorf("specify only one of --completed or --failed")
			}
			scope := "all"
			switch {
			case completed:
				scope = "completed"
			case failed:
				scope = "failed"
			}
			return ctx.withQueueAPI(func(api queueAPI, _ bool) error {
				resp, err := api.Clear(cmd.Context(), scope)
				if err != nil {
					return err
				}
				label := ""
				if scope != "all" {
					label = scope + " "
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cleared %d %s%s\n", resp.Removed, label, pluralItems(resp.Removed))
				if resp.Skipped > 0 {
					fmt.Fprintf(out, "Kept %d %s still processing\n", resp.Skipped, pluralItems(resp.Skipped))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "Only remove completed items")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only remove failed items")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return interrupted items to their stage start status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAPI(func(api queueAPI, _ bool) error {
				updated, err := api.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d %s\n", updated, pluralItems(updated))
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove idle items by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueAPI(func(api queueAPI, _ bool) error {
				removed, err := api.Remove(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", removed, pluralItems(removed))
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show queue and database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAPI(func(api queueAPI, _ bool) error {
				health, err := api.Health(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:     %s\n", health.DBPath)
				fmt.Fprintf(out, "Schema:       v%d\n", health.SchemaVersion)
				fmt.Fprintf(out, "Integrity:    %s\n", yesNo(health.IntegrityCheck))
				if len(health.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing cols: %s\n", strings.Join(health.MissingColumns, ", "))
				}
				if health.DatabaseError != "" {
					fmt.Fprintf(out, "DB error:     %s\n", health.DatabaseError)
				}
				fmt.Fprintf(out, "Total:        %d\n", health.Total)
				fmt.Fprintf(out, "Pending:      %d\n", health.Pending)
				fmt.Fprintf(out, "Processing:   %d\n", health.Processing)
				fmt.Fprintf(out, "Waiting:      %d\n", health.Waiting)
				fmt.Fprintf(out, "Failed:       %d\n", health.Failed)
				fmt.Fprintf(out, "Completed:    %d\n", health.Completed)
				fmt.Fprintf(out, "Needs review: %d\n", health.NeedsReview)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func pluralItems(n int64) string {
	if n == 1 {
		return "item"
	}
	return "items"
}
