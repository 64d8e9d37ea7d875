package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sort"
	"sync"

	"mcexport/internal/daemon"
	"mcexport/internal/logging"
	"mcexport/internal/queue"
)

// ServiceName is the JSON-RPC receiver name shared by server and client.
const ServiceName = "MCExport"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file. Open client
// connections are served until the client hangs up.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	// Reply before workers drain so the client is not left waiting.
	go s.daemon.RequestShutdown()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Workers = status.Workflow.Workers
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	resp.InputDir = status.InputDir
	resp.LedgerPath = status.LedgerPath
	resp.LedgerEntries = status.LedgerEntries
	resp.PendingFiles = status.PendingFiles
	resp.LastError = status.Workflow.LastError
	resp.QueueStats = make(map[string]int, len(status.Workflow.QueueStats))
	for k, v := range status.Workflow.QueueStats {
		resp.QueueStats[string(k)] = v
	}
	if status.Workflow.LastItem != nil {
		item := FromQueueItem(status.Workflow.LastItem)
		resp.LastItem = &item
	}
	names := make([]string, 0, len(status.Workflow.StageHealth))
	for name := range status.Workflow.StageHealth {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		health := status.Workflow.StageHealth[name]
		resp.StageHealth = append(resp.StageHealth, StageHealth{
			Name:   name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	for _, dep := range status.Dependencies {
		resp.Dependencies = append(resp.Dependencies, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Path:        dep.Path,
			Detail:      dep.Detail,
		})
	}
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses, err := ParseStatuses(req.Statuses)
	if err != nil {
		return err
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = FromQueueItems(items)
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	var (
		removed, skipped int64
		err              error
	)
	switch req.Scope {
	case "", "all":
		removed, skipped, err = s.daemon.ClearQueue(s.ctx)
	case "completed":
		removed, err = s.daemon.ClearCompleted(s.ctx)
	case "failed":
		removed, err = s.daemon.ClearFailed(s.ctx)
	default:
		return fmt.Errorf("unknown clear scope %q", req.Scope)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	resp.Skipped = skipped
	s.logger.Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.String("scope", req.Scope),
		logging.Int64("removed_count", removed),
		logging.Int64("skipped_busy", skipped))
	return nil
}

func (s *service) QueueReset(_ QueueResetRequest, resp *QueueResetResponse) error {
	updated, err := s.daemon.ResetStuck(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logger.Info("queue stuck items reset",
		logging.String(logging.FieldEventType, "queue_reset_stuck"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	updated, err := s.daemon.RetryFailed(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logger.Info("queue items retried",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("queue remove requires at least one id")
	}
	removed, err := s.daemon.RemoveItems(s.ctx, req.IDs)
	resp.Removed = removed
	if err != nil {
		return err
	}
	s.logger.Info("queue items removed",
		logging.String(logging.FieldEventType, "queue_remove"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.daemon.QueueHealth(s.ctx)
	if err != nil {
		return err
	}
	db, dbErr := s.daemon.DatabaseHealth(s.ctx)
	fillHealth(resp, health, db, dbErr)
	return nil
}

// fillHealth copies store diagnostics into resp. Database check failures are
// reported in the response rather than failing the call.
func fillHealth(resp *QueueHealthResponse, health queue.HealthSummary, db queue.DatabaseHealth, dbErr error) {
	resp.Total = health.Total
	resp.Pending = health.Pending
	resp.Processing = health.Processing
	resp.Waiting = health.Waiting
	resp.Failed = health.Failed
	resp.Completed = health.Completed
	resp.NeedsReview = health.NeedsReview
	resp.DBPath = db.DBPath
	resp.SchemaVersion = db.SchemaVersion
	resp.IntegrityCheck = db.IntegrityCheck
	resp.MissingColumns = append(resp.MissingColumns, db.MissingColumns...)
	resp.DatabaseError = db.Error
	if dbErr != nil && resp.DatabaseError == "" {
		resp.DatabaseError = dbErr.Error()
	}
}

// FillQueueHealth builds a QueueHealthResponse directly from a store, for
// callers that read the database without a running daemon.
func FillQueueHealth(ctx context.Context, store *queue.Store) (*QueueHealthResponse, error) {
	health, err := store.Health(ctx)
	if err != nil {
		return nil, err
	}
	db, dbErr := store.CheckHealth(ctx)
	var resp QueueHealthResponse
	fillHealth(&resp, health, db, dbErr)
	return &resp, nil
}

func (s *service) AddFile(req AddFileRequest, resp *AddFileResponse) error {
	item, err := s.daemon.AddFile(s.ctx, req.Path, req.Force)
	if err != nil {
		return err
	}
	resp.Item = FromQueueItem(item)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

// ParseStatuses validates status filter names.
func ParseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		parsed, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown queue status %q", value)
		}
		statuses = append(statuses, parsed)
	}
	return statuses, nil
}
