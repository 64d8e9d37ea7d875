package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mcexport/internal/logging"
	"mcexport/internal/preflight"
)

// runPreflightChecks validates directories, binaries and the add-on archive
// before workers start. It returns an error describing every failure.
func (m *Manager) runPreflightChecks(ctx context.Context, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, m.cfg)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart the daemon"),
		)
	}

	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(parts, "; "))
}
