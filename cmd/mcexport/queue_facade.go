package main

import (
	"context"
	"fmt"

	"mcexport/internal/ipc"
	"mcexport/internal/queue"
)

// queueAPI is the queue surface shared by the IPC client and direct store
// access, so commands behave the same whether or not a daemon is running.
type queueAPI interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]ipc.QueueItem, error)
	Clear(ctx context.Context, scope string) (*ipc.QueueClearResponse, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Health(ctx context.Context) (*ipc.QueueHealthResponse, error)
}

// withQueueAPI runs fn against the daemon when reachable and against the
// queue database otherwise.
func (c *commandContext) withQueueAPI(fn func(api queueAPI, viaDaemon bool) error) error {
	if client, err := c.dialClient(); err == nil {
		defer client.Close()
		return fn(&queueIPCAdapter{client: client}, true)
	}
	store, err := c.openStore()
	if err != nil {
		return fmt.Errorf("open queue database: %w", err)
	}
	defer store.Close()
	return fn(&queueStoreAdapter{store: store}, false)
}

// --- IPC adapter ---

type queueIPCAdapter struct {
	client *ipc.Client
}

func (a *queueIPCAdapter) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *queueIPCAdapter) List(_ context.Context, statuses []string) ([]ipc.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *queueIPCAdapter) Clear(_ context.Context, scope string) (*ipc.QueueClearResponse, error) {
	return a.client.QueueClear(scope)
}

func (a *queueIPCAdapter) Remove(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRemove(ids)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *queueIPCAdapter) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *queueIPCAdapter) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *queueIPCAdapter) Health(_ context.Context) (*ipc.QueueHealthResponse, error) {
	return a.client.QueueHealth()
}

// --- Store adapter ---

type queueStoreAdapter struct {
	store *queue.Store
}

func (a *queueStoreAdapter) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func (a *queueStoreAdapter) List(ctx context.Context, statuses []string) ([]ipc.QueueItem, error) {
	parsed, err := ipc.ParseStatuses(statuses)
	if err != nil {
		return nil, err
	}
	items, err := a.store.List(ctx, parsed...)
	if err != nil {
		return nil, err
	}
	return ipc.FromQueueItems(items), nil
}

func (a *queueStoreAdapter) Clear(ctx context.Context, scope string) (*ipc.QueueClearResponse, error) {
	var (
		resp ipc.QueueClearResponse
		err  error
	)
	switch scope {
	case "", "all":
		resp.Removed, resp.Skipped, err = a.store.Clear(ctx)
	case "completed":
		resp.Removed, err = a.store.ClearCompleted(ctx)
	case "failed":
		resp.Removed, err = a.store.ClearFailed(ctx)
	default:
		return nil, fmt.Errorf("unknown clear scope %q", scope)
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *queueStoreAdapter) Remove(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	for _, id := range ids {
		ok, err := a.store.Remove(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("remove item %d: %w", id, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func (a *queueStoreAdapter) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *queueStoreAdapter) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *queueStoreAdapter) Health(ctx context.Context) (*ipc.QueueHealthResponse, error) {
	return ipc.FillQueueHealth(ctx, a.store)
}
