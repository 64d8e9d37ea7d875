package services

import "context"

// contextKey scopes the values the workflow attaches to stage contexts.
type contextKey int

const (
	itemIDKey contextKey = iota
	stageKey
	workerKey
	requestIDKey
)

func withNonZero[T comparable](ctx context.Context, key contextKey, value T) context.Context {
	var zero T
	if value == zero {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup[T comparable](ctx context.Context, key contextKey) (T, bool) {
	value, ok := ctx.Value(key).(T)
	var zero T
	return value, ok && value != zero
}

// WithItemID tags ctx with the queue item being processed.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext returns the tagged queue item id.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithStage tags ctx with a stage name. Empty names leave ctx untouched.
func WithStage(ctx context.Context, stage string) context.Context {
	return withNonZero(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, stageKey)
}

// WithWorker tags ctx with the 1-based worker slot.
func WithWorker(ctx context.Context, worker int) context.Context {
	if worker < 0 {
		worker = 0
	}
	return withNonZero(ctx, workerKey, worker)
}

func WorkerFromContext(ctx context.Context) (int, bool) {
	return lookup[int](ctx, workerKey)
}

// WithRequestID tags ctx with the correlation id of one stage run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withNonZero(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, requestIDKey)
}
