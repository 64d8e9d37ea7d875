package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mcexport/internal/daemon"
	"mcexport/internal/ipc"
	"mcexport/internal/ledger"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "add <file.blend>...",
		Short: "Queue .blend files for rendering",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				paths = append(paths, abs)
			}

			out := cmd.OutOrStdout()
			var failed int
			report := func(path string, item ipc.QueueItem, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					return
				}
				fmt.Fprintf(out, "Queued #%d %s (%s)\n", item.ID, item.Title, item.SourcePath)
			}

			if client, err := ctx.dialClient(); err == nil {
				defer client.Close()
				for _, path := range paths {
					resp, err := client.AddFile(path, force)
					var item ipc.QueueItem
					if resp != nil {
						item = resp.Item
					}
					report(path, item, err)
				}
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				store, err := ctx.openStore()
				if err != nil {
					return fmt.Errorf("open queue database: %w", err)
				}
				defer store.Close()
				led, err := ledger.Load(cfg.LedgerPath())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
				}
				fmt.Fprintln(out, "(daemon not running; using queue database)")
				for _, path := range paths {
					item, err := daemon.Enqueue(cmd.Context(), store, led, path, force)
					report(path, ipc.FromQueueItem(item), err)
				}
			}

			if failed > 0 {
				return errors.New(pluralFailures(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Requeue files that were already queued or processed")
	return cmd
}

func pluralFailures(n int) string {
	if n == 1 {
		return "1 file could not be queued"
	}
	return fmt.Sprintf("%d files could not be queued", n)
}
