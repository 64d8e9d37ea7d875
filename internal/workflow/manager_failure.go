package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mcexport/internal/logging"
	"mcexport/internal/queue"
	"mcexport/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	logger := logging.WithContext(ctx, m.baseLogger()).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := m.classifyStageFailure(stageName, stageErr)
	status, review := services.FailureStatus(stageErr)
	details := services.Details(stageErr)
	item.SetFailed(message)
	item.Status = status
	if review {
		item.FlagReview(fmt.Sprintf("%s %s error", stageName, strings.ReplaceAll(details.Kind, "_", " ")))
	}

	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("resolved_status", string(status)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Bool("needs_review", item.NeedsReview),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Debug("daemon shutting down, could not update stage failure")
		case errors.Is(err, queue.ErrItemGone):
			logger.Warn("item was removed from the queue while processing", logging.Int64(logging.FieldItemID, item.ID))
		default:
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.recordOutcome(queue.StatusFailed)
	m.setLastItem(item)
	m.notifyStageError(ctx, stageName, item, stageErr)
	m.checkQueueCompletion(ctx)
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return m.getStageFailureMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = m.getStageFailureMessage(stageName, "failed")
	}
	return message
}

func (m *Manager) getStageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}
