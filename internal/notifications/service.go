package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mcexport/internal/config"
)

const userAgent = "mcexport/0.1.0"

// Event identifies a notification kind.
type Event string

const (
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
	EventJobCompleted   Event = "job_completed"
	EventJobNeedsReview Event = "job_needs_review"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event-specific values. Keys are documented per event in
// buildPayload.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		toggles:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	toggles  config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := buildPayload(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventQueueStarted, EventQueueCompleted:
		return n.toggles.Queue
	case EventJobCompleted, EventJobNeedsReview:
		return n.toggles.Completion
	case EventError:
		return n.toggles.Errors
	case EventTest:
		return true
	default:
		return false
	}
}

func buildPayload(event Event, data Payload) (payload, bool) {
	switch event {
	case EventQueueStarted:
		count := intValue(data["count"])
		return payload{
			title:   "mcexport - Queue Started",
			message: fmt.Sprintf("Started rendering queue with %d %s", count, plural(count, "file", "files")),
			tags:    []string{"mcexport", "queue", "started"},
		}, true
	case EventQueueCompleted:
		processed := intValue(data["processed"])
		failed := intValue(data["failed"])
		durationText := formatDuration(durationValue(data["duration"]))
		if failed == 0 {
			return payload{
				title:   "mcexport - Queue Complete",
				message: fmt.Sprintf("Queue complete: %d rendered in %s", processed, durationText),
				tags:    []string{"mcexport", "queue", "completed"},
			}, true
		}
		return payload{
			title:   "mcexport - Queue Complete (with errors)",
			message: fmt.Sprintf("Queue complete: %d rendered, %d failed in %s", processed, failed, durationText),
			tags:    []string{"mcexport", "queue", "completed"},
		}, true
	case EventJobCompleted:
		message := fmt.Sprintf("✅ Rendered: %s", stringValue(data["title"]))
		if videos := stringValue(data["videos"]); videos != "" {
			message += "\nVideos: " + videos
		}
		return payload{
			title:    "mcexport - Render Complete",
			message:  message,
			tags:     []string{"mcexport", "render", "completed"},
			priority: "high",
		}, true
	case EventJobNeedsReview:
		return payload{
			title:   "mcexport - Review Needed",
			message: fmt.Sprintf("⚠️ %s needs review: %s", stringValue(data["title"]), stringValue(data["reason"])),
			tags:    []string{"mcexport", "review"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := stringValue(data["context"]); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if msg := stringValue(data["error"]); msg != "" {
			builder.WriteString(msg)
		} else {
			builder.WriteString("unknown")
		}
		return payload{
			title:    "mcexport - Error",
			message:  builder.String(),
			tags:     []string{"mcexport", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "mcexport - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"mcexport", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case error:
		return strings.TrimSpace(val.Error())
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func intValue(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return 0
	}
}

func durationValue(v any) time.Duration {
	if d, ok := v.(time.Duration); ok {
		return d
	}
	return 0
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
