package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mcexport/internal/config"
	"mcexport/internal/daemonrun"
	"mcexport/internal/ipc"
	"mcexport/internal/ledger"
	"mcexport/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.statusSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// statusSnapshot asks the daemon for its status and otherwise assembles the
// same view from the config, queue database and ledger on disk.
func (c *commandContext) statusSnapshot(ctx context.Context) (*ipc.StatusResponse, error) {
	if client, err := c.dialClient(); err == nil {
		defer client.Close()
		return client.Status()
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	resp := &ipc.StatusResponse{
		PID:         daemonrun.ReadPID(cfg),
		Workers:     cfg.Workflow.Workers,
		QueueStats:  map[string]int{},
		LockPath:    cfg.LockPath(),
		QueueDBPath: cfg.QueueDBPath(),
		InputDir:    cfg.Paths.InputDir,
		LedgerPath:  cfg.LedgerPath(),
	}
	if led, err := ledger.Load(cfg.LedgerPath()); err == nil {
		resp.LedgerEntries = led.Len()
	}
	store, err := c.openStore()
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	defer store.Close()
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	for status, count := range stats {
		resp.QueueStats[string(status)] = count
	}
	resp.Dependencies = dependencyStatuses(cfg)
	return resp, nil
}

func dependencyStatuses(cfg *config.Config) []ipc.DependencyStatus {
	var out []ipc.DependencyStatus
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		out = append(out, ipc.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Path:        dep.Path,
			Detail:      dep.Detail,
		})
	}
	return out
}

func renderStatus(out io.Writer, status *ipc.StatusResponse) {
	fmt.Fprintln(out, "Daemon")
	if status.Running {
		fmt.Fprintf(out, "  Running:  yes (pid %d, %d workers)\n", status.PID, status.Workers)
	} else {
		fmt.Fprintln(out, "  Running:  no")
	}
	fmt.Fprintf(out, "  Input:    %s\n", status.InputDir)
	fmt.Fprintf(out, "  Database: %s\n", status.QueueDBPath)
	fmt.Fprintf(out, "  Ledger:   %s (%d processed)\n", status.LedgerPath, status.LedgerEntries)
	if status.LogPath != "" {
		fmt.Fprintf(out, "  Log:      %s\n", status.LogPath)
	}
	if status.LastError != "" {
		fmt.Fprintf(out, "  Last error: %s\n", status.LastError)
	}
	if len(status.PendingFiles) > 0 {
		fmt.Fprintf(out, "  Settling: %s\n", strings.Join(status.PendingFiles, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Queue")
	if len(status.QueueStats) == 0 {
		fmt.Fprintln(out, "  empty")
	}
	for _, row := range buildQueueStatusRows(status.QueueStats) {
		fmt.Fprintf(out, "  %-11s %s\n", row[0]+":", row[1])
	}

	if len(status.StageHealth) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Stages")
		stages := append([]ipc.StageHealth(nil), status.StageHealth...)
		sort.Slice(stages, func(i, j int) bool { return stages[i].Name < stages[j].Name })
		for _, stage := range stages {
			state := "ready"
			if !stage.Ready {
				state = "not ready"
			}
			line := fmt.Sprintf("  %-11s %s", stage.Name+":", state)
			if stage.Detail != "" {
				line += " (" + stage.Detail + ")"
			}
			fmt.Fprintln(out, line)
		}
	}

	if len(status.Dependencies) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Dependencies")
		for _, dep := range status.Dependencies {
			state := "available"
			if !dep.Available {
				state = "missing"
				if dep.Optional {
					state = "missing (optional)"
				}
			}
			line := fmt.Sprintf("  %-11s %s", dep.Name+":", state)
			if dep.Path != "" {
				line += " " + dep.Path
			} else if dep.Detail != "" {
				line += " (" + dep.Detail + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
}
