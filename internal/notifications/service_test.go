package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mcexport/internal/config"
	"mcexport/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventJobCompleted, notifications.Payload{"title": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "queue started",
			event:         notifications.EventQueueStarted,
			payload:       notifications.Payload{"count": 1},
			expectTitle:   "mcexport - Queue Started",
			expectMessage: "Started rendering queue with 1 file",
			expectTags:    "mcexport,queue,started",
		},
		{
			name:          "queue completed",
			event:         notifications.EventQueueCompleted,
			payload:       notifications.Payload{"processed": 3, "failed": 0, "duration": 90 * time.Second},
			expectTitle:   "mcexport - Queue Complete",
			expectMessage: "Queue complete: 3 rendered in 1m30s",
			expectTags:    "mcexport,queue,completed",
		},
		{
			name:          "queue completed with errors",
			event:         notifications.EventQueueCompleted,
			payload:       notifications.Payload{"processed": 2, "failed": 1},
			expectTitle:   "mcexport - Queue Complete (with errors)",
			expectMessage: "Queue complete: 2 rendered, 1 failed in 0s",
			expectTags:    "mcexport,queue,completed",
		},
		{
			name:           "job completed",
			event:          notifications.EventJobCompleted,
			payload:        notifications.Payload{"title": "Intro Shot", "videos": "intro_mobile.mp4, intro_desktop.mp4"},
			expectTitle:    "mcexport - Render Complete",
			expectMessage:  "✅ Rendered: Intro Shot\nVideos: intro_mobile.mp4, intro_desktop.mp4",
			expectTags:     "mcexport,render,completed",
			expectPriority: "high",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "render (item #4)", "error": errors.New("blender exited with status 1")},
			expectTitle:    "mcexport - Error",
			expectMessage:  "❌ Error with render (item #4): blender exited with status 1",
			expectTags:     "mcexport,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, _ := io.ReadAll(r.Body)
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = false
	cfg.Notifications.Completion = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventQueueStarted,
		notifications.EventQueueCompleted,
		notifications.EventJobCompleted,
		notifications.EventJobNeedsReview,
		notifications.EventError,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, nil); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}

	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("test notification must bypass toggles, calls=%d", n)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
