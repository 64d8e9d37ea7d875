package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcexport/internal/logging"
)

const (
	blendExt            = ".blend"
	defaultScanInterval = 10 * time.Second
	defaultTick         = 250 * time.Millisecond
)

// Candidate is a settled .blend file ready to be enqueued.
type Candidate struct {
	Path        string
	Fingerprint string
	Size        int64
	ModTime     time.Time
}

// Options configures a Watcher.
type Options struct {
	Dir          string
	Settle       time.Duration
	ScanInterval time.Duration
	// Skip reports whether a settled path is already known, for example
	// because it is in the ledger or the queue.
	Skip   func(ctx context.Context, path string) bool
	Submit func(ctx context.Context, c Candidate) error
	Logger *slog.Logger
}

type observation struct {
	fingerprint string
	since       time.Time
}

// Watcher tracks candidate files until they settle.
type Watcher struct {
	opts   Options
	logger *slog.Logger
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]observation
}

// New validates options and returns a Watcher. Run starts it.
func New(opts Options) (*Watcher, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("watcher: input directory required")
	}
	if opts.Submit == nil {
		return nil, errors.New("watcher: submit callback required")
	}
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = defaultScanInterval
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	return &Watcher{
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "watcher"),
		tick:    defaultTick,
		now:     time.Now,
		pending: make(map[string]observation),
	}, nil
}

// IsCandidate reports whether name looks like a source blend file. Blender
// backups (.blend1, .blend2) and hidden files are rejected.
func IsCandidate(name string) bool {
	base := filepath.Base(name)
	if base == "" || strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), blendExt)
}

// Fingerprint identifies a file version by size and modification time.
func Fingerprint(info fs.FileInfo) string {
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano())
}

// Pending returns the paths still waiting to settle.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.pending))
	for path := range w.pending {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Run watches until ctx is cancelled. Failing to register the fsnotify watch
// is not fatal; the periodic scan keeps discovery working.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.opts.Dir); err != nil {
		logging.WarnWithContext(w.logger, "input directory watch failed; relying on scans", "watch_unavailable",
			logging.String("dir", w.opts.Dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "new files are discovered on the scan interval only"),
			logging.String(logging.FieldErrorHint, "check inotify limits (fs.inotify.max_user_watches)"),
		)
	} else {
		w.logger.Info("watching input directory",
			logging.String("dir", w.opts.Dir),
			logging.Duration("settle", w.opts.Settle),
			logging.Duration("scan_interval", w.opts.ScanInterval),
		)
	}

	w.Scan()
	w.Flush(ctx)

	scanTicker := time.NewTicker(w.opts.ScanInterval)
	defer scanTicker.Stop()
	settleTicker := time.NewTicker(w.tick)
	defer settleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", logging.Error(err))
		case <-scanTicker.C:
			w.Scan()
		case <-settleTicker.C:
			w.Flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !IsCandidate(event.Name) {
		return
	}
	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.forget(event.Name)
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Chmod):
		w.observe(event.Name)
	}
}

// Scan lists the input directory and observes every candidate.
func (w *Watcher) Scan() {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		w.logger.Warn("input directory scan failed", logging.String("dir", w.opts.Dir), logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsCandidate(entry.Name()) {
			continue
		}
		w.observe(filepath.Join(w.opts.Dir, entry.Name()))
	}
}

// observe records the current fingerprint of path. The settle clock restarts
// whenever the fingerprint changes.
func (w *Watcher) observe(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		w.forget(path)
		return
	}
	fp := Fingerprint(info)
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.pending[path]; ok && prev.fingerprint == fp {
		return
	}
	w.pending[path] = observation{fingerprint: fp, since: w.now()}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

// Flush submits every pending path whose fingerprint has been stable for the
// settle window.
func (w *Watcher) Flush(ctx context.Context) {
	for _, c := range w.settled() {
		if ctx.Err() != nil {
			return
		}
		if w.opts.Skip != nil && w.opts.Skip(ctx, c.Path) {
			w.logger.Debug("skipping known blend", logging.String(logging.FieldSourcePath, c.Path))
			continue
		}
		if err := w.opts.Submit(ctx, c); err != nil {
			w.logger.Warn("failed to submit blend",
				logging.String(logging.FieldSourcePath, c.Path),
				logging.Error(err),
			)
			continue
		}
		w.logger.Info("blend file settled",
			logging.String(logging.FieldSourcePath, c.Path),
			logging.Int64("size", c.Size),
		)
	}
}

func (w *Watcher) settled() []Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	var ready []Candidate
	for path, obs := range w.pending {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			delete(w.pending, path)
			continue
		}
		fp := Fingerprint(info)
		if fp != obs.fingerprint {
			w.pending[path] = observation{fingerprint: fp, since: now}
			continue
		}
		if now.Sub(obs.since) < w.opts.Settle {
			continue
		}
		delete(w.pending, path)
		ready = append(ready, Candidate{Path: path, Fingerprint: fp, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].Path < ready[j].Path })
	return ready
}
