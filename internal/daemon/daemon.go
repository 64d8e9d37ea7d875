package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mcexport/internal/config"
	"mcexport/internal/deps"
	"mcexport/internal/ledger"
	"mcexport/internal/logging"
	"mcexport/internal/notifications"
	"mcexport/internal/preflight"
	"mcexport/internal/preparation"
	"mcexport/internal/queue"
	"mcexport/internal/watcher"
	"mcexport/internal/workflow"
)

// ErrAlreadyProcessed is returned by AddFile when the ledger already lists
// the file and force was not requested.
var ErrAlreadyProcessed = errors.New("file already processed")

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	ledger   *ledger.Ledger
	notifier notifications.Service
	watcher  *watcher.Watcher
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	watchWG sync.WaitGroup

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	QueueDBPath   string
	LockFilePath  string
	LogPath       string
	InputDir      string
	LedgerPath    string
	LedgerEntries int
	PendingFiles  []string
	Dependencies  []deps.Status
}

// New constructs a daemon with initialized dependencies. The ledger is
// shared with the collection stage so both see the same processed set.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, led *ledger.Ledger, notifier notifications.Service, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}
	if led == nil {
		led = ledger.New(cfg.LedgerPath())
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		ledger:   led,
		notifier: notifier,
		logPath:  logPath,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		shutdown: make(chan struct{}),
	}

	w, err := watcher.New(watcher.Options{
		Dir:          cfg.Paths.InputDir,
		Settle:       time.Duration(cfg.Workflow.SettleSeconds) * time.Second,
		ScanInterval: time.Duration(cfg.Workflow.ScanInterval) * time.Second,
		Skip:         d.known,
		Submit:       d.submit,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	d.watcher = w
	return d, nil
}

// LoadLedger reads the processed-files ledger for cfg. A corrupt ledger is
// logged and replaced by an empty one so the daemon can still start.
func LoadLedger(cfg *config.Config, logger *slog.Logger) *ledger.Ledger {
	led, err := ledger.Load(cfg.LedgerPath())
	if err != nil {
		logging.WarnWithContext(logger, "processed files ledger unreadable; starting empty", "ledger_load_failed",
			logging.String("path", cfg.LedgerPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previously processed files may be rendered again"),
			logging.String(logging.FieldErrorHint, "fix or delete processed_files.json"),
		)
	}
	return led
}

// Start launches the watcher and workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mcexport daemon instance is already running")
	}

	if reset, err := d.store.ResetStuckProcessing(ctx); err != nil {
		d.logger.Warn("failed to reset interrupted items",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_reset_failed"),
			logging.String(logging.FieldImpact, "interrupted jobs stay in their processing status"),
			logging.String(logging.FieldErrorHint, "run mcexport queue reset"),
		)
	} else if reset > 0 {
		d.logger.Info("reset interrupted items",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "queue_reset_stuck"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}

	d.watchWG.Add(1)
	go func() {
		defer d.watchWG.Done()
		if err := d.watcher.Run(runCtx); err != nil {
			d.logger.Error("input watcher stopped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watcher_failed"),
				logging.String(logging.FieldImpact, "new files must be added manually"),
				logging.String(logging.FieldErrorHint, "check input_dir permissions and restart the daemon"),
			)
		}
	}()

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("mcexport daemon started",
		logging.String("lock", d.lockPath),
		logging.String("input_dir", d.cfg.Paths.InputDir),
		logging.Int("workers", d.cfg.Workflow.Workers),
		logging.Int("ledger_entries", d.ledger.Len()),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watchWG.Wait()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start is refused"),
		)
	}
	d.running.Store(false)
	d.logger.Info("mcexport daemon stopped")
}

// RequestShutdown stops processing and signals the hosting process to exit.
func (d *Daemon) RequestShutdown() {
	d.Stop()
	d.shutdownOnce.Do(func() { close(d.shutdown) })
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// known reports whether path is already in the ledger or the queue.
func (d *Daemon) known(ctx context.Context, path string) bool {
	if d.ledger.Contains(path) {
		return true
	}
	item, err := d.store.FindBySource(ctx, path)
	if err != nil {
		d.logger.Warn("queue lookup failed; skipping file for now",
			logging.String(logging.FieldSourcePath, path),
			logging.Error(err),
		)
		return true
	}
	return item != nil
}

func (d *Daemon) submit(ctx context.Context, c watcher.Candidate) error {
	item, err := d.store.NewJob(ctx, c.Path, preparation.DeriveTitle(c.Path), c.Fingerprint)
	if err != nil {
		if errors.Is(err, queue.ErrDuplicateSource) {
			return nil
		}
		return err
	}
	d.logger.Info("blend file queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldSourcePath, c.Path),
		logging.String(logging.FieldEventType, "job_queued"),
	)
	d.workflow.Wake()
	return nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// GetQueueItem returns a single queue item, or nil when it does not exist.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all idle queue items. skipped counts the items a worker
// still holds.
func (d *Daemon) ClearQueue(ctx context.Context) (removed, skipped int64, err error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight items back to their start status.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	updated, err := d.store.ResetStuckProcessing(ctx)
	if err == nil && updated > 0 {
		d.workflow.Wake()
	}
	return updated, err
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	updated, err := d.store.RetryFailed(ctx, ids...)
	if err == nil && updated > 0 {
		d.workflow.Wake()
	}
	return updated, err
}

// RemoveItems deletes idle items by id. Busy items abort the operation with
// queue.ErrItemBusy after the earlier ids have been removed.
func (d *Daemon) RemoveItems(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("remove item %d: %w", id, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// AddFile enqueues a .blend file by hand and wakes the workers. See Enqueue
// for the duplicate and force rules.
func (d *Daemon) AddFile(ctx context.Context, sourcePath string, force bool) (*queue.Item, error) {
	item, err := Enqueue(ctx, d.store, d.ledger, sourcePath, force)
	if err != nil {
		return item, err
	}
	attrs := append(logging.ItemAttrs(item),
		logging.Bool("force", force),
		logging.String(logging.FieldEventType, "job_queued"),
	)
	d.logger.Info("manual file queued", logging.Args(attrs...)...)
	d.workflow.Wake()
	return item, nil
}

// Enqueue validates a .blend path and queues it. Without force, files already
// in the queue or the ledger are refused. With force, an existing idle item
// is requeued and the ledger entry is dropped so the file renders again. The
// CLI calls this directly when no daemon is running.
func Enqueue(ctx context.Context, store *queue.Store, led *ledger.Ledger, sourcePath string, force bool) (*queue.Item, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	if !watcher.IsCandidate(absPath) {
		return nil, fmt.Errorf("unsupported file %q: expected a .blend file", filepath.Base(absPath))
	}
	fingerprint := watcher.Fingerprint(info)

	existing, err := store.FindBySource(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil && !force {
		return existing, fmt.Errorf("%w: item #%d (use --force to requeue)", queue.ErrDuplicateSource, existing.ID)
	}
	if led.Contains(absPath) {
		if !force {
			return nil, fmt.Errorf("%w: %s (use --force to render again)", ErrAlreadyProcessed, absPath)
		}
		led.Remove(absPath)
		if err := led.Save(); err != nil {
			return nil, fmt.Errorf("save ledger: %w", err)
		}
	}

	if existing == nil {
		item, err := store.NewJob(ctx, absPath, preparation.DeriveTitle(absPath), fingerprint)
		if err != nil {
			return nil, fmt.Errorf("enqueue manual file: %w", err)
		}
		return item, nil
	}
	item, err := store.Requeue(ctx, existing.ID, fingerprint)
	if err != nil {
		return item, fmt.Errorf("requeue item %d: %w", existing.ID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("requeue item %d: item disappeared", existing.ID)
	}
	return item, nil
}

// LogPath returns the path to the daemon run log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Workflow:      d.workflow.Status(ctx),
		QueueDBPath:   d.store.Path(),
		LockFilePath:  d.lockPath,
		LogPath:       d.logPath,
		InputDir:      d.cfg.Paths.InputDir,
		LedgerPath:    d.ledger.Path(),
		LedgerEntries: d.ledger.Len(),
		PendingFiles:  d.watcher.Pending(),
		Dependencies:  preflight.CheckSystemDeps(d.cfg),
	}
}
