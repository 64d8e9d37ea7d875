package logging

import (
	"context"
	"log/slog"

	"mcexport/internal/services"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldItemID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldWorker, worker))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

type teeHandlerKey struct{}

// ContextWithTee attaches an extra handler that WithContext duplicates every
// derived logger into. The workflow uses it to mirror stage logs into the
// per-item log file without handing each stage a dedicated logger.
func ContextWithTee(ctx context.Context, handler slog.Handler) context.Context {
	if handler == nil {
		return ctx
	}
	return context.WithValue(ctx, teeHandlerKey{}, handler)
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx != nil {
		if tee, ok := ctx.Value(teeHandlerKey{}).(slog.Handler); ok {
			logger = TeeLogger(logger, tee)
		}
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
