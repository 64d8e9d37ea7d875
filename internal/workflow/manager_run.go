package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mcexport/internal/logging"
	"mcexport/internal/services"
)

// Start runs preflight checks and launches the worker pool in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	m.mu.Unlock()

	if m.preflight {
		if err := m.runPreflightChecks(ctx, m.baseLogger()); err != nil {
			m.setLastError(err)
			return err
		}
	}

	workers := m.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	for id := 1; id <= workers; id++ {
		id := id
		group.Go(func() error {
			return m.runWorker(groupCtx, id)
		})
	}
	m.cancel = cancel
	m.group = group
	m.running = true
	m.baseLogger().Info("workflow started",
		logging.Int("workers", workers),
		logging.String(logging.FieldEventType, "workflow_started"),
	)
	return nil
}

// Stop terminates background processing and waits for every worker to
// return. In-flight items stay in their processing status and are reset to
// their stage start on the next daemon start.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	group := m.group
	m.running = false
	m.cancel = nil
	m.group = nil
	m.mu.Unlock()

	cancel()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		m.baseLogger().Warn("workflow worker exited with error", logging.Error(err))
	}
}

func (m *Manager) runWorker(ctx context.Context, id int) error {
	ctx = services.WithWorker(ctx, id)
	logger := m.workerLogger(id)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workflow worker panicked", logging.String("panic", fmt.Sprint(r)))
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := m.heartbeat.ReclaimStaleItems(ctx, logger, m.processingStatuses()); err != nil && ctx.Err() == nil {
			logger.Warn("reclaim stale processing failed; stuck items may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		item, err := m.store.ClaimNext(ctx, m.startStatuses()...)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.handleNextItemError(ctx, logger, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, logger, item); err != nil && errors.Is(err, context.Canceled) {
			return nil
		}
	}
}

func (m *Manager) handleNextItemError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logging.ErrorWithContext(logger, "failed to claim next queue item", "queue_claim_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-timer.C:
	}
}

// IsRunning reports whether the worker pool is active.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
