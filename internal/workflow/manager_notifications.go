package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mcexport/internal/logging"
	"mcexport/internal/notifications"
	"mcexport/internal/queue"
)

func (m *Manager) notifyStageError(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	if m.notifier == nil || stageErr == nil {
		return
	}
	label := fmt.Sprintf("%s of %s (item #%d)", stageName, item.Title, item.ID)
	m.publish(ctx, notifications.EventError, notifications.Payload{
		"error":   stageErr,
		"context": label,
	})
}

// onItemStarted announces the queue when a claim happens while idle.
func (m *Manager) onItemStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.runCompleted = 0
	m.runFailed = 0
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logStatsFailure(err, "start notification will not be sent")
		return
	}
	m.publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": countActiveItems(stats)})
}

// checkQueueCompletion announces the queue drain once nothing is left to claim
// or in flight.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logStatsFailure(err, "completion notification will not be sent")
		return
	}
	if countActiveItems(stats) > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start := m.queueStart
	processed := m.runCompleted
	failed := m.runFailed
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	m.baseLogger().Info("queue drained",
		logging.String(logging.FieldEventType, "queue_complete"),
		logging.Int("processed", processed),
		logging.Int("failed", failed),
		logging.Duration("duration", duration),
	)
	m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": processed,
		"failed":    failed,
		"duration":  duration,
	})
}

func (m *Manager) recordOutcome(status queue.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch status {
	case queue.StatusCompleted:
		m.runCompleted++
	case queue.StatusFailed:
		m.runFailed++
	}
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			m.baseLogger().Debug("daemon shutting down, notification not sent", logging.String("event", string(event)))
			return
		}
		m.baseLogger().Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

func (m *Manager) logStatsFailure(err error, impact string) {
	if errors.Is(err, context.Canceled) {
		m.baseLogger().Debug("daemon shutting down, queue stats unavailable")
		return
	}
	logging.WarnWithContext(m.baseLogger(), "queue stats unavailable; notification skipped", "queue_stats_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
		logging.String(logging.FieldImpact, impact),
	)
}

// countActiveItems counts items that are waiting for or inside a stage.
func countActiveItems(stats map[queue.Status]int) int {
	total := 0
	for status, count := range stats {
		if status == queue.StatusCompleted || status == queue.StatusFailed {
			continue
		}
		total += count
	}
	return total
}
