package stage

import (
	"context"
	"log/slog"

	"mcexport/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by handlers that accept the daemon logger when
// the workflow registers them. Per-item fields come from the context.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
