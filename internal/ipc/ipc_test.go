package ipc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"mcexport/internal/daemon"
	"mcexport/internal/ipc"
	"mcexport/internal/logging"
	"mcexport/internal/queue"
	"mcexport/internal/stage"
	"mcexport/internal/testsupport"
	"mcexport/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

type fixture struct {
	daemon *daemon.Daemon
	store  *queue.Store
	client *ipc.Client
	input  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger, workflow.WithoutPreflight())
	mgr.ConfigureStages(workflow.StageSet{Preparer: noopStage{}, Renderer: noopStage{}, Collector: noopStage{}})
	d, err := daemon.New(cfg, store, logger, mgr, nil, nil, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon Start: %v", err)
	}

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return &fixture{daemon: d, store: store, client: client, input: t.TempDir()}
}

func TestIPCStatusAndQueueOperations(t *testing.T) {
	f := newFixture(t)

	status, err := f.client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon running")
	}
	if len(status.StageHealth) != 3 {
		t.Fatalf("expected 3 stage health entries, got %+v", status.StageHealth)
	}
	if status.PID == 0 || status.LockPath == "" || status.QueueDBPath == "" {
		t.Fatalf("expected runtime paths in status, got %+v", status)
	}

	path := testsupport.WriteBlend(t, f.input, "shot.blend")
	added, err := f.client.AddFile(path, false)
	if err != nil {
		t.Fatalf("AddFile RPC failed: %v", err)
	}
	if added.Item.ID == 0 || added.Item.SourcePath != path {
		t.Fatalf("unexpected added item %+v", added.Item)
	}
	if _, err := f.client.AddFile(path, false); err == nil || !strings.Contains(err.Error(), "already queued") {
		t.Fatalf("expected duplicate error over RPC, got %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		list, err := f.client.QueueList([]string{string(queue.StatusCompleted)})
		if err != nil {
			t.Fatalf("QueueList RPC failed: %v", err)
		}
		if len(list.Items) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("item never completed, list=%+v", list.Items)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := f.client.QueueList([]string{"bogus"}); err == nil {
		t.Fatal("expected unknown status filter to fail")
	}

	health, err := f.client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth RPC failed: %v", err)
	}
	if health.Total != 1 || health.Completed != 1 || !health.IntegrityCheck {
		t.Fatalf("unexpected health %+v", health)
	}

	cleared, err := f.client.QueueClear("completed")
	if err != nil {
		t.Fatalf("QueueClear RPC failed: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 cleared, got %d", cleared.Removed)
	}

	if _, err := f.client.QueueRemove(nil); err == nil {
		t.Fatal("expected QueueRemove without ids to fail")
	}
	if _, err := f.client.QueueClear("everything"); err == nil {
		t.Fatal("expected unknown clear scope to fail")
	}
}

func TestIPCRetryAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := testsupport.NewJob(t, f.store, "/missing/failed.blend")
	item.Status = queue.StatusFailed
	item.ErrorMessage = "render failed"
	if err := f.store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	retried, err := f.client.QueueRetry([]int64{item.ID})
	if err != nil {
		t.Fatalf("QueueRetry RPC failed: %v", err)
	}
	if retried.Updated != 1 {
		t.Fatalf("expected 1 retried, got %d", retried.Updated)
	}

	reset, err := f.client.QueueReset()
	if err != nil {
		t.Fatalf("QueueReset RPC failed: %v", err)
	}
	if reset.Updated < 0 {
		t.Fatalf("unexpected reset count %d", reset.Updated)
	}

	notify, err := f.client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification RPC failed: %v", err)
	}
	if notify.Sent {
		t.Fatal("expected no notification without a topic")
	}
}

func TestIPCStopRequestsShutdown(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected Stopped=true")
	}
	select {
	case <-f.daemon.ShutdownRequested():
	case <-time.After(10 * time.Second):
		t.Fatal("daemon shutdown was not requested")
	}
	deadline := time.Now().Add(10 * time.Second)
	for f.daemon.Status(context.Background()).Running {
		if time.Now().After(deadline) {
			t.Fatal("daemon still running after Stop")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
