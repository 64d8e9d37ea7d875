package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mcexport/internal/fileutil"
)

// document is the on-disk shape.
type document struct {
	ProcessedFiles []string `json:"processed_files"`
	LastUpdated    string   `json:"last_updated"`
}

// Ledger is a persisted set of processed source paths. It is safe for
// concurrent use.
type Ledger struct {
	path        string
	mu          sync.RWMutex
	entries     map[string]struct{}
	lastUpdated time.Time
	now         func() time.Time
}

// New returns an empty ledger bound to path without reading it.
func New(path string) *Ledger {
	return &Ledger{path: path, entries: make(map[string]struct{}), now: time.Now}
}

// Load reads the ledger at path. A missing or empty file yields an empty
// ledger. A corrupt file returns an empty, usable ledger together with the
// parse error so callers can log it and carry on.
func Load(path string) (*Ledger, error) {
	l := New(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return l, fmt.Errorf("read ledger: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return l, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return l, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, entry := range doc.ProcessedFiles {
		if key := normalize(entry); key != "" {
			l.entries[key] = struct{}{}
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, doc.LastUpdated); err == nil {
		l.lastUpdated = ts
	} else if ts, err := time.Parse("2006-01-02T15:04:05.999999", doc.LastUpdated); err == nil {
		l.lastUpdated = ts
	}
	return l, nil
}

// Path returns the backing file location.
func (l *Ledger) Path() string {
	return l.path
}

// Contains reports whether path has been processed.
func (l *Ledger) Contains(path string) bool {
	key := normalize(path)
	if key == "" {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[key]
	return ok
}

// Add records path and reports whether it was new.
func (l *Ledger) Add(path string) bool {
	key := normalize(path)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; ok {
		return false
	}
	l.entries[key] = struct{}{}
	return true
}

// Remove forgets path and reports whether it was present.
func (l *Ledger) Remove(path string) bool {
	key := normalize(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; !ok {
		return false
	}
	delete(l.entries, key)
	return true
}

// Len returns the number of recorded sources.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns the recorded sources in sorted order.
func (l *Ledger) Entries() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.entries))
	for entry := range l.entries {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}

// LastUpdated returns the timestamp of the last load or save.
func (l *Ledger) LastUpdated() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastUpdated
}

// Save writes the ledger atomically.
func (l *Ledger) Save() error {
	if l.path == "" {
		return errors.New("ledger path is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	files := make([]string, 0, len(l.entries))
	for entry := range l.entries {
		files = append(files, entry)
	}
	sort.Strings(files)
	stamp := l.now()
	data, err := json.MarshalIndent(document{
		ProcessedFiles: files,
		LastUpdated:    stamp.Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := fileutil.WriteFileAtomic(l.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	l.lastUpdated = stamp
	return nil
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
