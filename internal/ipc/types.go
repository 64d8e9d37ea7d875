package ipc

import (
	"time"

	"mcexport/internal/queue"
)

// StopRequest stops the daemon process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// QueueItem is the wire representation of a queue item.
type QueueItem struct {
	ID              int64             `json:"id"`
	SourcePath      string            `json:"source_path"`
	Title           string            `json:"title"`
	Status          string            `json:"status"`
	JobDir          string            `json:"job_dir,omitempty"`
	Videos          map[string]string `json:"videos,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	ProgressStage   string            `json:"progress_stage,omitempty"`
	ProgressPercent float64           `json:"progress_percent"`
	ProgressMessage string            `json:"progress_message,omitempty"`
	Attempts        int               `json:"attempts"`
	NeedsReview     bool              `json:"needs_review"`
	ReviewReason    string            `json:"review_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// FromQueueItem converts a stored item into its wire form.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:              item.ID,
		SourcePath:      item.SourcePath,
		Title:           item.Title,
		Status:          string(item.Status),
		JobDir:          item.JobDir,
		Videos:          item.Videos(),
		ErrorMessage:    item.ErrorMessage,
		ProgressStage:   item.ProgressStage,
		ProgressPercent: item.ProgressPercent,
		ProgressMessage: item.ProgressMessage,
		Attempts:        item.Attempts,
		NeedsReview:     item.NeedsReview,
		ReviewReason:    item.ReviewReason,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

// FromQueueItems converts a slice of stored items, skipping nils.
func FromQueueItems(items []*queue.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, FromQueueItem(item))
	}
	return out
}

// StageHealth describes readiness of a workflow stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Workers       int                `json:"workers"`
	QueueStats    map[string]int     `json:"queue_stats"`
	LastError     string             `json:"last_error,omitempty"`
	LastItem      *QueueItem         `json:"last_item,omitempty"`
	LockPath      string             `json:"lock_path"`
	QueueDBPath   string             `json:"queue_db_path"`
	LogPath       string             `json:"log_path,omitempty"`
	InputDir      string             `json:"input_dir"`
	LedgerPath    string             `json:"ledger_path"`
	LedgerEntries int                `json:"ledger_entries"`
	PendingFiles  []string           `json:"pending_files,omitempty"`
	StageHealth   []StageHealth      `json:"stage_health"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueClearRequest removes items. Scope is "all", "completed" or "failed".
type QueueClearRequest struct {
	Scope string `json:"scope"`
}

// QueueClearResponse reports removed entries and busy entries left in place.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
	Skipped int64 `json:"skipped,omitempty"`
}

// QueueResetRequest resets stuck processing items.
type QueueResetRequest struct{}

// QueueResetResponse reports reset counts.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed items (all when IDs is empty).
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports retry counts.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRemoveRequest deletes idle items by id.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports removal counts.
type QueueRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// QueueHealthRequest fetches queue diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse contains aggregated queue counts plus database checks.
type QueueHealthResponse struct {
	Total          int      `json:"total"`
	Pending        int      `json:"pending"`
	Processing     int      `json:"processing"`
	Waiting        int      `json:"waiting"`
	Failed         int      `json:"failed"`
	Completed      int      `json:"completed"`
	NeedsReview    int      `json:"needs_review"`
	DBPath         string   `json:"db_path"`
	SchemaVersion  int      `json:"schema_version"`
	IntegrityCheck bool     `json:"integrity_check"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	DatabaseError  string   `json:"database_error,omitempty"`
}

// AddFileRequest queues a .blend file manually.
type AddFileRequest struct {
	Path  string `json:"path"`
	Force bool   `json:"force"`
}

// AddFileResponse returns the queued item.
type AddFileResponse struct {
	Item QueueItem `json:"item"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
