package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mcexport/internal/logging"
	"mcexport/internal/queue"
)

// HeartbeatMonitor keeps last_heartbeat fresh for running items and returns
// items whose worker went silent to the start of their stage.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{store: store, logger: logger, interval: interval, timeout: timeout}
}

// ReclaimStaleItems requeues items in statuses whose heartbeat is older than
// the timeout. A zero timeout disables reclamation.
func (h *HeartbeatMonitor) ReclaimStaleItems(ctx context.Context, logger *slog.Logger, statuses []queue.Status) error {
	if h.timeout <= 0 || len(statuses) == 0 {
		return nil
	}
	count, err := h.store.ReclaimStaleProcessing(ctx, time.Now().Add(-h.timeout), statuses...)
	if err != nil || count == 0 {
		return err
	}
	logging.WarnWithContext(logger, "requeued items with stale heartbeats", "heartbeat_reclaimed",
		logging.Int64("count", count),
		logging.Duration("timeout", h.timeout),
		logging.String(logging.FieldImpact, "stage restarts from the beginning for the requeued items"),
		logging.String(logging.FieldErrorHint, "look for a hung blender process or a suspended host"),
	)
	return nil
}

// Beat refreshes the heartbeat of itemID every interval until the returned
// stop function is called. stop waits for the beat goroutine to exit.
func (h *HeartbeatMonitor) Beat(ctx context.Context, itemID int64) (stop func()) {
	beatCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.run(beatCtx, itemID)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (h *HeartbeatMonitor) run(ctx context.Context, itemID int64) {
	if h.interval <= 0 {
		<-ctx.Done()
		return
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(h.logger, "heartbeat"))
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := h.store.UpdateHeartbeat(ctx, itemID)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			return
		default:
			logger.Warn("heartbeat update failed", logging.Error(err))
		}
	}
}
