package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mcexport/internal/queue"
	"mcexport/internal/testsupport"
)

func TestOpenCreatesSchemaAndInsertsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewJob(ctx, "/input/Hero Shot.blend", "Hero Shot", "1024:1700000000")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Hero Shot" || fetched.Fingerprint != "1024:1700000000" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}

	found, err := store.FindBySource(ctx, "/input/Hero Shot.blend")
	if err != nil {
		t.Fatalf("FindBySource failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}

	missing, err := store.GetByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing id, got %#v %v", missing, err)
	}
}

func TestNewJobRejectsDuplicateSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.NewJob(ctx, "/input/a.blend", "a", ""); err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	_, err := store.NewJob(ctx, "/input/a.blend", "a", "")
	if !errors.Is(err, queue.ErrDuplicateSource) {
		t.Fatalf("expected ErrDuplicateSource, got %v", err)
	}
	if _, err := store.NewJob(ctx, "  ", "", ""); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestReopenChecksSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.NewJob(context.Background(), "/input/keep.blend", "keep", ""); err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	items, err := reopened.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected persisted item, got %d", len(items))
	}

	health, err := reopened.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("unexpected missing columns: %v", health.MissingColumns)
	}
	if health.SchemaVersion != 1 || health.TotalItems != 1 {
		t.Fatalf("unexpected version/count: %+v", health)
	}
}

func TestClaimNextWalksStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewJob(t, store, "/input/walk.blend")

	for _, tr := range queue.Transitions() {
		claimed, err := store.ClaimNext(ctx)
		if err != nil {
			t.Fatalf("ClaimNext: %v", err)
		}
		if claimed == nil || claimed.ID != item.ID {
			t.Fatalf("expected to claim item %d, got %#v", item.ID, claimed)
		}
		if claimed.Status != tr.Processing {
			t.Fatalf("expected %s, got %s", tr.Processing, claimed.Status)
		}
		if claimed.LastHeartbeat == nil {
			t.Fatal("expected heartbeat stamped on claim")
		}
		again, err := store.ClaimNext(ctx)
		if err != nil {
			t.Fatalf("ClaimNext: %v", err)
		}
		if again != nil {
			t.Fatalf("processing item must not be claimable, got %#v", again)
		}
		claimed.Status = tr.Done
		claimed.LastHeartbeat = nil
		if err := store.Update(ctx, claimed); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", final.Attempts)
	}
}

func TestClaimNextRespectsStartFilterAndOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "/input/first.blend")
	second := testsupport.NewJob(t, store, "/input/second.blend")
	second.Status = queue.StatusPrepared
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	claimed, err := store.ClaimNext(ctx, queue.StatusPrepared)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil || claimed.ID != second.ID || claimed.Status != queue.StatusRendering {
		t.Fatalf("expected second item rendering, got %#v", claimed)
	}

	claimed, err = store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID || claimed.Status != queue.StatusPreparing {
		t.Fatalf("expected first item preparing, got %#v", claimed)
	}

	if _, err := store.ClaimNext(ctx, queue.StatusCompleted); err == nil {
		t.Fatal("expected error for non-start status")
	}
}

func TestClaimNextConcurrentWorkersNeverShareItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const jobs = 12
	for i := 0; i < jobs; i++ {
		testsupport.NewJob(t, store, fmt.Sprintf("/input/job-%02d.blend", i))
	}

	var (
		mu      sync.Mutex
		seen    = make(map[int64]int)
		wg      sync.WaitGroup
		errOnce error
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, err := store.ClaimNext(ctx, queue.StatusPending)
				if err != nil {
					mu.Lock()
					errOnce = err
					mu.Unlock()
					return
				}
				if item == nil {
					return
				}
				mu.Lock()
				seen[item.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if errOnce != nil {
		t.Fatalf("ClaimNext error: %v", errOnce)
	}
	if len(seen) != jobs {
		t.Fatalf("expected %d distinct claims, got %d", jobs, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("item %d claimed %d times", id, count)
		}
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		initial  queue.Status
		expected queue.Status
	}{
		{queue.StatusPreparing, queue.StatusPending},
		{queue.StatusRendering, queue.StatusPrepared},
		{queue.StatusCollecting, queue.StatusRendered},
		{queue.StatusCompleted, queue.StatusCompleted},
	}
	var ids []int64
	for i, tc := range cases {
		item := testsupport.NewJob(t, store, fmt.Sprintf("/input/reset-%d.blend", i))
		item.Status = tc.initial
		now := time.Now()
		item.LastHeartbeat = &now
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 items reset, got %d", count)
	}

	for idx, tc := range cases {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.initial, tc.expected, updated.Status)
		}
		if queue.IsProcessingStatus(tc.initial) && updated.LastHeartbeat != nil {
			t.Fatalf("%s: expected heartbeat cleared", tc.initial)
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stale := testsupport.NewJob(t, store, "/input/stale.blend")
	fresh := testsupport.NewJob(t, store, "/input/fresh.blend")

	old := time.Now().Add(-10 * time.Minute)
	stale.Status = queue.StatusRendering
	stale.LastHeartbeat = &old
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update: %v", err)
	}
	fresh.Status = queue.StatusRendering
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := store.UpdateHeartbeat(ctx, fresh.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed, got %d", reclaimed)
	}

	got, _ := store.GetByID(ctx, stale.ID)
	if got.Status != queue.StatusPrepared {
		t.Fatalf("expected stale item back to prepared, got %s", got.Status)
	}
	got, _ = store.GetByID(ctx, fresh.ID)
	if got.Status != queue.StatusRendering {
		t.Fatalf("expected fresh item still rendering, got %s", got.Status)
	}

	if _, err := store.ReclaimStaleProcessing(ctx, time.Now(), queue.StatusPending); err == nil {
		t.Fatal("expected error for non-processing status filter")
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewJob(t, store, "/input/a.blend")
	b := testsupport.NewJob(t, store, "/input/b.blend")
	b.Status = queue.StatusPrepared
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	c := testsupport.NewJob(t, store, "/input/c.blend")
	c.SetFailed("boom")
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected order A,B,C, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusPrepared, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 || filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered result: %v", filtered)
	}
	if filtered[1].ErrorMessage != "boom" {
		t.Fatalf("expected error message persisted, got %q", filtered[1].ErrorMessage)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewJob(t, store, "/input/a.blend")
	b := testsupport.NewJob(t, store, "/input/b.blend")
	for _, item := range []*queue.Item{a, b} {
		item.SetFailed("boom")
		item.FlagReview("source missing")
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	updated, err := store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
	got, _ := store.GetByID(ctx, b.ID)
	if got.Status != queue.StatusPending || got.NeedsReview || got.ErrorMessage != "" {
		t.Fatalf("expected b reset to pending, got %#v", got)
	}
	got, _ = store.GetByID(ctx, a.ID)
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected a still failed, got %s", got.Status)
	}

	updated, err = store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected remaining failed item retried, got %d", updated)
	}
}

func TestRequeueAndRemoveRefuseBusyItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	done := testsupport.NewJob(t, store, "/input/done.blend")
	done.Status = queue.StatusCompleted
	done.SetVideo("mobile", "/out/done/done_mobile.mp4")
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}
	requeued, err := store.Requeue(ctx, done.ID, "2048:1")
	if err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if requeued.Status != queue.StatusPending || requeued.MobileVideo != "" || requeued.Fingerprint != "2048:1" {
		t.Fatalf("unexpected requeued item: %#v", requeued)
	}

	busy := testsupport.NewJob(t, store, "/input/busy.blend")
	busy.Status = queue.StatusRendering
	if err := store.Update(ctx, busy); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := store.Requeue(ctx, busy.ID, ""); !errors.Is(err, queue.ErrItemBusy) {
		t.Fatalf("expected ErrItemBusy from Requeue, got %v", err)
	}
	if _, err := store.Remove(ctx, busy.ID); !errors.Is(err, queue.ErrItemBusy) {
		t.Fatalf("expected ErrItemBusy from Remove, got %v", err)
	}

	removed, err := store.Remove(ctx, done.ID)
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = store.Remove(ctx, 4242)
	if err != nil || removed {
		t.Fatalf("expected no-op removal for unknown id, got %v %v", removed, err)
	}
}

func TestClearVariantsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	statuses := []queue.Status{queue.StatusPending, queue.StatusRendering, queue.StatusRendered, queue.StatusCompleted, queue.StatusFailed}
	for i, status := range statuses {
		item := testsupport.NewJob(t, store, fmt.Sprintf("/input/h-%d.blend", i))
		item.Status = status
		if status == queue.StatusCompleted {
			item.FlagReview("no videos produced")
		}
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	want := queue.HealthSummary{Total: 5, Pending: 1, Processing: 1, Waiting: 1, Failed: 1, Completed: 1, NeedsReview: 1}
	if health != want {
		t.Fatalf("health = %+v, want %+v", health, want)
	}

	if n, err := store.ClearCompleted(ctx); err != nil || n != 1 {
		t.Fatalf("ClearCompleted = %d, %v", n, err)
	}
	if n, err := store.ClearFailed(ctx); err != nil || n != 1 {
		t.Fatalf("ClearFailed = %d, %v", n, err)
	}
	removed, skipped, err := store.Clear(ctx)
	if err != nil || removed != 2 || skipped != 1 {
		t.Fatalf("Clear = %d removed, %d skipped, %v", removed, skipped, err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 1 || stats[queue.StatusRendering] != 1 {
		t.Fatalf("expected only the rendering item to remain, got %v", stats)
	}
}

func TestClearKeepsClaimedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, store, "/input/claimed.blend")
	testsupport.NewJob(t, store, "/input/waiting.blend")
	claimed, err := store.ClaimNext(ctx)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext = %v, %v", claimed, err)
	}
	if claimed.Status != queue.StatusPreparing {
		t.Fatalf("expected preparing, got %s", claimed.Status)
	}

	removed, skipped, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 || skipped != 1 {
		t.Fatalf("Clear = %d removed, %d skipped; want 1 and 1", removed, skipped)
	}

	claimed.ProgressMessage = "copied"
	if err := store.Update(ctx, claimed); err != nil {
		t.Fatalf("Update of claimed item after Clear: %v", err)
	}
	got, err := store.GetByID(ctx, claimed.ID)
	if err != nil || got == nil {
		t.Fatalf("claimed item vanished: %v %v", got, err)
	}
}

func TestUpdateReportsDeletedItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewJob(t, store, "/input/gone.blend")
	if removed, err := store.Remove(ctx, item.ID); err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	item.Status = queue.StatusPrepared
	if err := store.Update(ctx, item); !errors.Is(err, queue.ErrItemGone) {
		t.Fatalf("expected ErrItemGone, got %v", err)
	}
}
