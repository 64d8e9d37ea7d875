package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mcexport/internal/logging"
	"mcexport/internal/queue"
	"mcexport/internal/stage"
)

const shutdownPersistTimeout = 5 * time.Second

func (m *Manager) processItem(ctx context.Context, workerLogger *slog.Logger, item *queue.Item) error {
	stg, ok := m.stageForProcessing(item.Status)
	if !ok {
		workerLogger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.waitForItemOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx, closeLog := m.withItemLog(withStageContext(ctx, stg.name, item, requestID), workerLogger, item)
	defer closeLog()
	stageLogger := logging.WithContext(stageCtx, workerLogger)

	m.setItemProcessingState(item)
	if err := m.store.Update(stageCtx, item); err != nil {
		stageLogger.Error("failed to persist processing transition", logging.Error(err))
		m.setLastError(err)
		return err
	}
	m.setLastItem(item)
	m.onItemStarted(stageCtx)

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	startAttrs := append([]logging.Attr{
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.Int("attempt", item.Attempts),
	}, logging.ItemAttrs(item)...)
	stageLogger.Info("stage started", logging.Args(startAttrs...)...)

	if err := stg.handler.Prepare(ctx, item); err != nil {
		return m.stageError(ctx, stageLogger, stg, item, err)
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if err := m.executeWithHeartbeat(ctx, stg.handler, item); err != nil {
		return m.stageError(ctx, stageLogger, stg, item, err)
	}

	item.Status = stg.doneStatus
	item.LastHeartbeat = nil
	item.ErrorMessage = ""
	if item.Status == queue.StatusCompleted {
		if item.ProgressPercent < 100 {
			item.ProgressPercent = 100
		}
		if strings.TrimSpace(item.ProgressStage) == "" {
			item.ProgressStage = deriveStageLabel(queue.StatusCompleted)
		}
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.String(logging.FieldProgressStage, strings.TrimSpace(item.ProgressStage)),
		logging.String(logging.FieldProgressMessage, strings.TrimSpace(item.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	if item.Status == queue.StatusCompleted {
		m.recordOutcome(queue.StatusCompleted)
	}
	m.setLastItem(item)
	m.checkQueueCompletion(ctx)
	return nil
}

// stageError routes a Prepare or Execute error. Shutdown interruptions leave
// the item in its processing status for ResetStuckProcessing to recover.
func (m *Manager) stageError(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		stageLogger.Info("stage interrupted by shutdown", logging.String(logging.FieldEventType, "stage_interrupted"))
		m.markInterrupted(ctx, stageLogger, item)
		return context.Canceled
	}
	m.handleStageFailure(ctx, stg.name, item, err)
	m.setLastError(err)
	return err
}

func (m *Manager) markInterrupted(ctx context.Context, logger *slog.Logger, item *queue.Item) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownPersistTimeout)
	defer cancel()
	item.ProgressStage = queue.DaemonStopReason
	item.ProgressMessage = "Interrupted; resumes on next start"
	if err := m.store.UpdateProgress(persistCtx, item); err != nil {
		logger.Debug("could not record interruption", logging.Error(err))
	}
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	stop := m.heartbeat.Beat(ctx, item.ID)
	defer stop()
	return handler.Execute(ctx, item)
}

func (m *Manager) setItemProcessingState(item *queue.Item) {
	now := time.Now().UTC()
	label := deriveStageLabel(item.Status)
	item.ProgressStage = label
	item.ProgressMessage = fmt.Sprintf("%s started", label)
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
}
