package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"mcexport/internal/notifications"
	"mcexport/internal/queue"
	"mcexport/internal/stage"
)

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	last   map[notifications.Event]notifications.Payload
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.last == nil {
		s.last = make(map[notifications.Event]notifications.Payload)
	}
	s.last[event] = payload
	return nil
}

func (s *stubNotifier) count(event notifications.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func (s *stubNotifier) payload(event notifications.Event) notifications.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[event]
}

// stubStage records calls and delegates Execute to an optional func.
type stubStage struct {
	name    string
	mu      sync.Mutex
	calls   []int64
	execute func(ctx context.Context, item *queue.Item) error
	prepare func(ctx context.Context, item *queue.Item) error
}

func (s *stubStage) Prepare(ctx context.Context, item *queue.Item) error {
	if s.prepare != nil {
		return s.prepare(ctx, item)
	}
	item.InitProgress(s.name, s.name+" starting")
	return nil
}

func (s *stubStage) Execute(ctx context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.calls = append(s.calls, item.ID)
	s.mu.Unlock()
	if s.execute != nil {
		return s.execute(ctx, item)
	}
	item.SetProgressComplete(s.name, s.name+" done")
	return nil
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func (s *stubStage) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
		time.Sleep(20 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("item %d did not reach %s (last %+v)", id, want, item)
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
