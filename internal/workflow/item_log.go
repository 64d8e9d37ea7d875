package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"mcexport/internal/config"
	"mcexport/internal/logging"
	"mcexport/internal/queue"
)

// ItemLogPattern matches per-item log files for retention.
const ItemLogPattern = "item-*.log"

// ItemLogDir returns the directory holding per-item logs.
func ItemLogDir(cfg *config.Config) string {
	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "items")
}

// ItemLogger manages dedicated log files for queue items.
type ItemLogger struct {
	baseDir string
	level   string
}

// NewItemLogger creates an item logger rooted at ItemLogDir. Item logs always
// record debug detail regardless of the daemon log level.
func NewItemLogger(cfg *config.Config) *ItemLogger {
	return &ItemLogger{baseDir: ItemLogDir(cfg), level: "debug"}
}

// Path returns the log file for item. The name depends only on the item id
// and title so every stage appends to the same file.
func (l *ItemLogger) Path(item *queue.Item) string {
	if l == nil || l.baseDir == "" || item == nil {
		return ""
	}
	slug := sanitizeSlug(item.Title)
	if slug == "" {
		slug = "untitled"
	}
	return filepath.Join(l.baseDir, fmt.Sprintf("item-%d-%s.log", item.ID, slug))
}

// Open returns a JSON handler appending to the item's log file.
func (l *ItemLogger) Open(item *queue.Item) (slog.Handler, io.Closer, error) {
	path := l.Path(item)
	if path == "" {
		return nil, nil, fmt.Errorf("item log directory not configured")
	}
	return logging.NewFileHandler(path, l.level)
}

func sanitizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(value))
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			builder.WriteRune(unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
