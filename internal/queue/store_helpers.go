package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, source_path, title, fingerprint, status, job_dir, working_blend, script_path, mobile_video, desktop_video, error_message, progress_stage, progress_percent, progress_message, attempts, needs_review, review_reason, created_at, updated_at, last_heartbeat"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		sourcePath       string
		title            sql.NullString
		fingerprint      sql.NullString
		statusStr        string
		jobDir           sql.NullString
		workingBlend     sql.NullString
		scriptPath       sql.NullString
		mobileVideo      sql.NullString
		desktopVideo     sql.NullString
		errorMessage     sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		attempts         sql.NullInt64
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&title,
		&fingerprint,
		&statusStr,
		&jobDir,
		&workingBlend,
		&scriptPath,
		&mobileVideo,
		&desktopVideo,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&attempts,
		&needsReview,
		&reviewReason,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		SourcePath:      sourcePath,
		Title:           title.String,
		Fingerprint:     fingerprint.String,
		Status:          Status(statusStr),
		JobDir:          jobDir.String,
		WorkingBlend:    workingBlend.String,
		ScriptPath:      scriptPath.String,
		MobileVideo:     mobileVideo.String,
		DesktopVideo:    desktopVideo.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		Attempts:        int(attempts.Int64),
		NeedsReview:     needsReview.Valid && needsReview.Int64 != 0,
		ReviewReason:    reviewReason.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nowString() string {
	return formatTime(time.Now())
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
