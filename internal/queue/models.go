package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPreparing  Status = "preparing"
	StatusPrepared   Status = "prepared"
	StatusRendering  Status = "rendering"
	StatusRendered   Status = "rendered"
	StatusCollecting Status = "collecting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the progress stage recorded when shutdown interrupts a job.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusPreparing,
	StatusPrepared,
	StatusRendering,
	StatusRendered,
	StatusCollecting,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Transition describes one stage: items waiting in Start are claimed into
// Processing and land in Done when the stage handler succeeds.
type Transition struct {
	Start      Status
	Processing Status
	Done       Status
}

var transitions = []Transition{
	{Start: StatusPending, Processing: StatusPreparing, Done: StatusPrepared},
	{Start: StatusPrepared, Processing: StatusRendering, Done: StatusRendered},
	{Start: StatusRendered, Processing: StatusCollecting, Done: StatusCompleted},
}

// Transitions returns the ordered stage transitions.
func Transitions() []Transition {
	cp := make([]Transition, len(transitions))
	copy(cp, transitions)
	return cp
}

// TransitionForProcessing returns the transition whose processing status matches.
func TransitionForProcessing(status Status) (Transition, bool) {
	for _, t := range transitions {
		if t.Processing == status {
			return t, true
		}
	}
	return Transition{}, false
}

// TransitionForStart returns the transition whose start status matches.
func TransitionForStart(status Status) (Transition, bool) {
	for _, t := range transitions {
		if t.Start == status {
			return t, true
		}
	}
	return Transition{}, false
}

func processingStatuses() []Status {
	out := make([]Status, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, t.Processing)
	}
	return out
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total       int
	Pending     int
	Processing  int
	Waiting     int
	Failed      int
	Completed   int
	NeedsReview int
}

// Item represents a render job persisted in SQLite.
type Item struct {
	ID              int64
	SourcePath      string
	Title           string
	Fingerprint     string
	Status          Status
	JobDir          string
	WorkingBlend    string
	ScriptPath      string
	MobileVideo     string
	DesktopVideo    string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	Attempts        int
	NeedsReview     bool
	ReviewReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := TransitionForProcessing(status)
	return ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsTerminal reports whether the item has left the pipeline.
func (i Item) IsTerminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusFailed
}

// Videos returns the collected channel videos keyed by channel.
func (i Item) Videos() map[string]string {
	out := make(map[string]string, 2)
	if i.MobileVideo != "" {
		out["mobile"] = i.MobileVideo
	}
	if i.DesktopVideo != "" {
		out["desktop"] = i.DesktopVideo
	}
	return out
}

// SetVideo records the collected video for a channel.
func (i *Item) SetVideo(channel, path string) {
	switch channel {
	case "mobile":
		i.MobileVideo = path
	case "desktop":
		i.DesktopVideo = path
	}
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// FlagReview marks the item for operator attention without changing status.
func (i *Item) FlagReview(reason string) {
	i.NeedsReview = true
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	if i.ReviewReason == "" {
		i.ReviewReason = reason
		return
	}
	if !strings.Contains(i.ReviewReason, reason) {
		i.ReviewReason += "; " + reason
	}
}
