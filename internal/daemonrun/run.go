package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mcexport/internal/collection"
	"mcexport/internal/config"
	"mcexport/internal/daemon"
	"mcexport/internal/ipc"
	"mcexport/internal/ledger"
	"mcexport/internal/logging"
	"mcexport/internal/notifications"
	"mcexport/internal/preflight"
	"mcexport/internal/preparation"
	"mcexport/internal/queue"
	"mcexport/internal/rendering"
	"mcexport/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when set.
	LogLevel string
	// SocketPath overrides the configured IPC socket when set.
	SocketPath string
}

// Run starts the mcexport daemon and blocks until a signal arrives or a
// client requests shutdown over IPC.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, logPath, err := logging.NewDaemonLogger(cfg, time.Now())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logger = logging.WithLevelOverride(logger, logging.ParseLevel(level))
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update mcexport.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logging.RunLogPattern, Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: workflow.ItemLogDir(cfg), Pattern: workflow.ItemLogPattern},
	)
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	led := daemon.LoadLedger(cfg, logger)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	if err := registerStages(manager, cfg, store, logger, led, notifier); err != nil {
		store.Close()
		return err
	}

	d, err := daemon.New(cfg, store, logger, manager, led, notifier, logPath)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := cfg.SocketPath()
	if override := strings.TrimSpace(opts.SocketPath); override != "" {
		socketPath = override
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration, preflight output, and queue database access"),
			logging.String(logging.FieldImpact, "daemon exits without processing queue items"),
		)
		return err
	}

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("mcexport daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger, led *ledger.Ledger, notifier notifications.Service) error {
	renderer, err := rendering.NewRenderer(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	mgr.ConfigureStages(workflow.StageSet{
		Preparer:  preparation.NewPreparer(cfg, store, logger),
		Renderer:  renderer,
		Collector: collection.NewCollector(cfg, store, logger, led, notifier),
	})
	return nil
}

// PIDPath is where the running daemon records its process id.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "mcexport.pid")
}

// ReadPID returns the pid recorded by a running daemon, or 0 when none is
// recorded.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(PIDPath(cfg))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "mcexport.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("input_dir", cfg.Paths.InputDir),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		key := strings.ToLower(strings.ReplaceAll(dep.Name, " ", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", dep.Available),
			logging.String(key+"_binary", dep.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
