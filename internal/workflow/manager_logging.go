package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"mcexport/internal/logging"
	"mcexport/internal/queue"
	"mcexport/internal/services"
)

func (m *Manager) baseLogger() *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	return m.logger
}

func (m *Manager) workerLogger(id int) *slog.Logger {
	return m.baseLogger().With(
		logging.String(logging.FieldComponent, fmt.Sprintf("workflow-worker-%d", id)),
	)
}

// withItemLog attaches the item's log file to ctx so every logger derived via
// logging.WithContext also writes there. The returned func closes the file.
func (m *Manager) withItemLog(ctx context.Context, logger *slog.Logger, item *queue.Item) (context.Context, func()) {
	noop := func() {}
	if m.itemLogs == nil || item == nil {
		return ctx, noop
	}
	handler, closer, err := m.itemLogs.Open(item)
	if err != nil {
		logger.Warn("item log unavailable", logging.Error(err))
		return ctx, noop
	}
	return logging.ContextWithTee(ctx, handler), func() {
		if err := closer.Close(); err != nil {
			logger.Debug("close item log", logging.Error(err))
		}
	}
}

func withStageContext(ctx context.Context, stageName string, item *queue.Item, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if item != nil {
		ctx = services.WithItemID(ctx, item.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

func deriveStageLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
