package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusPending:
			health.Pending += count
		case status == StatusFailed:
			health.Failed += count
		case status == StatusCompleted:
			health.Completed += count
		case IsProcessingStatus(status):
			health.Processing += count
		default:
			health.Waiting += count
		}
	}
	if err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM queue_items WHERE needs_review = 1`,
	).Scan(&health.NeedsReview); err != nil {
		return HealthSummary{}, fmt.Errorf("count review items: %w", err)
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	fail := func(op string, err error) (DatabaseHealth, error) {
		health.Error = err.Error()
		return health, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.db.PingContext(connCtx); err != nil {
		return fail("ping queue database", err)
	}
	health.DatabaseReadable = true

	if health.SchemaVersion, err = s.readSchemaVersion(connCtx); err != nil {
		return fail("schema version", err)
	}

	rows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(queue_items)")
	if err != nil {
		return fail("table info", err)
	}
	present := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fail("scan table info", err)
		}
		present[name] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fail("iterate table info", err)
	}
	health.TableExists = len(present) > 0
	for _, col := range expectedColumns {
		if _, ok := present[col]; !ok {
			health.MissingColumns = append(health.MissingColumns, col)
		}
	}
	sort.Strings(health.MissingColumns)

	if health.TableExists {
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM queue_items").Scan(&health.TotalItems); err != nil {
			return fail("count queue items", err)
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		return fail("integrity check", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")
	return health, nil
}
