package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// NewJob inserts a pending render job for a .blend file.
func (s *Store) NewJob(ctx context.Context, sourcePath, title, fingerprint string) (*Item, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, errors.New("source path is required")
	}
	timestamp := nowString()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            source_path, title, fingerprint, status, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourcePath,
		nullableString(title),
		nullableString(fingerprint),
		StatusPending,
		timestamp,
		timestamp,
		"Queued",
		0.0,
		nil,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, sourcePath)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. A missing item yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	item, err := s.queryItemWithRetry(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindBySource returns the item created from sourcePath, if any.
func (s *Store) FindBySource(ctx context.Context, sourcePath string) (*Item, error) {
	item, err := s.queryItemWithRetry(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE source_path = ?`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("find by source: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	updated := nowString()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET title = ?, fingerprint = ?, status = ?, job_dir = ?, working_blend = ?,
             script_path = ?, mobile_video = ?, desktop_video = ?, error_message = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?,
             needs_review = ?, review_reason = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.Title),
		nullableString(item.Fingerprint),
		item.Status,
		nullableString(item.JobDir),
		nullableString(item.WorkingBlend),
		nullableString(item.ScriptPath),
		nullableString(item.MobileVideo),
		nullableString(item.DesktopVideo),
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		nullableTime(item.LastHeartbeat),
		updated,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("update item %d: %w", item.ID, ErrItemGone)
	}
	if parsed, err := parseTimeString(updated); err == nil {
		item.UpdatedAt = parsed
	}
	return nil
}

// UpdateProgress persists only the progress columns, leaving status untouched.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nowString(),
		item.ID,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Requeue sends an idle item back to pending, clearing outputs and review
// state. Items currently held by a worker return ErrItemBusy.
func (s *Store) Requeue(ctx context.Context, id int64, fingerprint string) (*Item, error) {
	processing := processingStatuses()
	args := []any{StatusPending, nullableString(fingerprint), nowString(), id}
	args = append(args, statusArgs(processing)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, fingerprint = COALESCE(?, fingerprint), progress_stage = 'Requeued',
             progress_percent = 0, progress_message = NULL, error_message = NULL,
             mobile_video = NULL, desktop_video = NULL, needs_review = 0, review_reason = NULL,
             last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status NOT IN (`+makePlaceholders(len(processing))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("requeue item: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, nil
		}
		return existing, ErrItemBusy
	}
	return s.GetByID(ctx, id)
}

// Remove deletes an idle item by identifier. Items held by a worker return ErrItemBusy.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	processing := processingStatuses()
	args := append([]any{id}, statusArgs(processing)...)
	res, err := s.execWithRetry(ctx,
		`DELETE FROM queue_items WHERE id = ? AND status NOT IN (`+makePlaceholders(len(processing))+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return false, ErrItemBusy
		}
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every idle item. Items a worker holds stay, and skipped
// reports how many.
func (s *Store) Clear(ctx context.Context) (removed, skipped int64, err error) {
	processing := processingStatuses()
	placeholders := makePlaceholders(len(processing))
	res, err := s.execWithRetry(ctx,
		`DELETE FROM queue_items WHERE status NOT IN (`+placeholders+`)`,
		statusArgs(processing)...,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("clear queue: %w", err)
	}
	if removed, err = res.RowsAffected(); err != nil {
		return 0, 0, fmt.Errorf("rows affected: %w", err)
	}
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(*) FROM queue_items WHERE status IN (`+placeholders+`)`,
		statusArgs(processing)...,
	)
	if err := row.Scan(&skipped); err != nil {
		return removed, 0, fmt.Errorf("count busy items: %w", err)
	}
	return removed, skipped, nil
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}
