package testsupport

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mcexport/internal/config"
	"mcexport/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a job for sourcePath, titled after the file name.
func NewJob(t testing.TB, store *queue.Store, sourcePath string) *queue.Item {
	t.Helper()

	title := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	item, err := store.NewJob(context.Background(), sourcePath, title, "")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return item
}
