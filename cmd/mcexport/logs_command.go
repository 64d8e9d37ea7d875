package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mcexport/internal/logs"
	"mcexport/internal/workflow"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var itemID int64

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log or the log of one queue item",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "mcexport.log")
			if itemID != 0 {
				path, err = logs.FindItemLog(workflow.ItemLogDir(cfg), itemID)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			offset := result.Offset
			for follow {
				next, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 30 * time.Second})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range next.Lines {
					fmt.Fprintln(out, line)
				}
				offset = next.Offset
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, fmt.Sprintf("Number of lines to show (at most %d)", logs.MaxTailLines))
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().Int64Var(&itemID, "item", 0, "Show the log of this queue item instead of the daemon log")
	return cmd
}
