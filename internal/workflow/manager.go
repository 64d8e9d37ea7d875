package workflow

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mcexport/internal/config"
	"mcexport/internal/notifications"
	"mcexport/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor
	itemLogs  *ItemLogger
	preflight bool

	stages []pipelineStage
	wake   chan struct{}

	mu       sync.RWMutex
	running  bool
	cancel   func()
	group    *errgroup.Group
	lastErr  error
	lastItem *queue.Item

	queueActive  bool
	queueStart   time.Time
	runCompleted int
	runFailed    int
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	skipPreflight bool
}

// WithoutPreflight disables the readiness checks Start runs before workers
// begin claiming items.
func WithoutPreflight() ManagerOption {
	return func(o *managerOptions) {
		o.skipPreflight = true
	}
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg), opts...)
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier.
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		itemLogs:  NewItemLogger(cfg),
		preflight: !options.skipPreflight,
		wake:      make(chan struct{}, 1),
	}
}

// Wake nudges an idle worker to poll the queue immediately, for example after
// a file was enqueued.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
