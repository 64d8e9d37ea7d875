package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// rollbackCase renders a CASE expression mapping each processing status back
// to its start status, with matching arguments.
func rollbackCase() (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(transitions)*2)
	b.WriteString("CASE status")
	for _, t := range transitions {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, t.Processing, t.Start)
	}
	b.WriteString(" ELSE status END")
	return b.String(), args
}

// ClaimNext atomically moves the oldest item waiting in one of the start
// statuses into its processing status and returns it. It returns (nil, nil)
// when nothing is claimable. A single UPDATE ... RETURNING guarantees two
// workers never receive the same item.
func (s *Store) ClaimNext(ctx context.Context, starts ...Status) (*Item, error) {
	if len(starts) == 0 {
		for _, t := range transitions {
			starts = append(starts, t.Start)
		}
	}

	var claimCase strings.Builder
	caseArgs := make([]any, 0, len(starts)*2)
	claimCase.WriteString("CASE status")
	for _, start := range starts {
		t, ok := TransitionForStart(start)
		if !ok {
			return nil, fmt.Errorf("claim: %q is not a stage start status", start)
		}
		claimCase.WriteString(" WHEN ? THEN ?")
		caseArgs = append(caseArgs, t.Start, t.Processing)
	}
	claimCase.WriteString(" ELSE status END")

	now := nowString()
	placeholders := makePlaceholders(len(starts))
	args := append([]any{}, caseArgs...)
	args = append(args, StatusPending, now, now)
	args = append(args, statusArgs(starts)...)
	args = append(args, statusArgs(starts)...)

	query := `UPDATE queue_items
        SET status = ` + claimCase.String() + `,
            attempts = attempts + CASE WHEN status = ? THEN 1 ELSE 0 END,
            error_message = NULL,
            last_heartbeat = ?, updated_at = ?
        WHERE id = (
            SELECT id FROM queue_items WHERE status IN (` + placeholders + `)
            ORDER BY created_at, id LIMIT 1
        ) AND status IN (` + placeholders + `)
        RETURNING ` + itemColumns

	item, err := s.queryItemWithRetry(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("claim next item: %w", err)
	}
	return item, nil
}

// ResetStuckProcessing resets items in processing states back to the start of
// their current stage. The daemon calls it on startup to recover jobs that a
// previous run was interrupted in.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	expr, args := rollbackCase()
	processing := processingStatuses()
	args = append(args, nowString())
	args = append(args, statusArgs(processing)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = `+expr+`,
             progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+makePlaceholders(len(processing))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := nowString()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns items whose heartbeat is older than cutoff to
// the start of their current stage. With no statuses every processing status
// is considered.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = processingStatuses()
	}
	for _, status := range statuses {
		if !IsProcessingStatus(status) {
			return 0, fmt.Errorf("reclaim: %q is not a processing status", status)
		}
	}
	expr, args := rollbackCase()
	args = append(args, nowString())
	args = append(args, statusArgs(statuses)...)
	args = append(args, formatTime(cutoff))
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
        SET status = `+expr+`,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+makePlaceholders(len(statuses))+`) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed items back to pending for reprocessing. With no ids
// every failed item is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	args := []any{StatusPending, nowString(), StatusFailed}
	query := `UPDATE queue_items
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, needs_review = 0,
            review_reason = NULL, updated_at = ?
        WHERE status = ?`
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
