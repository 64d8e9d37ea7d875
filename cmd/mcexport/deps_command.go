package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mcexport/internal/preflight"
	"mcexport/internal/services/blender"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and preflight requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			results := preflight.RunAll(checkCtx, cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "failed"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			writeTable(cmd, []string{"Check", "Status", "Detail"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft})
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				if !dep.Available {
					continue
				}
				if version := blenderVersion(cmd.Context(), dep.Command); version != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", dep.Name, version)
				}
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight checks failed", len(failed))
			}
			return nil
		},
	}
}

func blenderVersion(ctx context.Context, binary string) string {
	client, err := blender.New(binary, 0)
	if err != nil {
		return ""
	}
	versionCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	version, err := client.Version(versionCtx)
	if err != nil {
		return ""
	}
	return version
}
