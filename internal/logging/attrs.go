package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mcexport/internal/queue"
	"mcexport/internal/services"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }
func Bool(key string, value bool) Attr { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Float64(key string, value float64) Attr { return slog.Float64(key, value) }
func Int(key string, value int) Attr { return slog.Int(key, value) }
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }
func String(key string, value string) Attr { return slog.String(key, value) }
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorAttrs returns the error plus its classified kind and hint.
func ErrorAttrs(err error) []Attr {
	details := services.Details(err)
	attrs := []Attr{Error(err)}
	if details.Kind != "" {
		attrs = append(attrs, String(FieldErrorKind, details.Kind), String(FieldErrorHint, details.Hint))
	}
	return attrs
}

// ItemAttrs identifies a queue item: id, title, source and, once prepared,
// the job directory.
func ItemAttrs(item *queue.Item) []Attr {
	if item == nil {
		return nil
	}
	attrs := []Attr{
		Int64(FieldItemID, item.ID),
		String("title", strings.TrimSpace(item.Title)),
		String(FieldSourcePath, strings.TrimSpace(item.SourcePath)),
	}
	if item.JobDir != "" {
		attrs = append(attrs, String(FieldJobDir, item.JobDir))
	}
	return attrs
}

// ProgressAttrs mirrors the item's progress columns.
func ProgressAttrs(item *queue.Item) []Attr {
	if item == nil {
		return nil
	}
	return []Attr{
		String(FieldProgressStage, item.ProgressStage),
		Float64(FieldProgressPercent, item.ProgressPercent),
		String(FieldProgressMessage, item.ProgressMessage),
	}
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey returns true if any attribute in attrs has the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func withDefault(attrs []Attr, key, value string) []Attr {
	if HasAttrKey(attrs, key) {
		return attrs
	}
	return append(attrs, String(key, value))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact, filling defaults for any the caller left out.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "check logs for details")
	attrs = withDefault(attrs, FieldImpact, "operation completed with warnings")
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "check logs for details")
	logger.Error(msg, Args(attrs...)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }
func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
