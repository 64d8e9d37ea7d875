package preflight

import (
	"context"
	"fmt"

	"mcexport/internal/config"
	"mcexport/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromDependency(status))
	}
	results = append(results, CheckAddonArchive(cfg.Blender.AddonPath))

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed returns only the results that did not pass. Notification checks are
// advisory and never count as failures.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && r.Name != "ntfy" {
			out = append(out, r)
		}
	}
	return out
}

func fromDependency(status deps.Status) Result {
	name := status.Name + " binary"
	if status.Available {
		return Result{Name: name, Passed: true, Detail: status.Path}
	}
	if status.Optional {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("optional: %s", status.Detail)}
	}
	return Result{Name: name, Detail: status.Detail}
}
