// Package audit keeps a persistent record of commit handler runs in a
// local sqlite database.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one handler run within a commit.
type Event struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	CommitID  string        `json:"commit_id"`
	Handler   string        `json:"handler"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Store provides persistent storage for commit audit events.
type Store struct {
	mu            sync.RWMutex
	db            *sql.DB
	retentionDays int
}

// NewStore opens (or creates) the audit database at the given path.
func NewStore(dbPath string, retentionDays int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS commit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			commit_id TEXT NOT NULL,
			handler TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_commit_timestamp ON commit_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_commit_id ON commit_events(commit_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = 90
	}

	return &Store{db: db, retentionDays: retentionDays}, nil
}

// Write persists an audit event.
func (s *Store) Write(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO commit_events (timestamp, commit_id, handler, duration_ms, error)
		VALUES (?, ?, ?, ?, ?)
	`, evt.Timestamp, evt.CommitID, evt.Handler, evt.Duration.Milliseconds(), evt.Error)

	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// HandlerResult implements session.Observer. Write failures are swallowed:
// a broken audit database must not block commits.
func (s *Store) HandlerResult(commitID, handler string, took time.Duration, err error) {
	evt := Event{
		Timestamp: time.Now(),
		CommitID:  commitID,
		Handler:   handler,
		Duration:  took,
	}
	if err != nil {
		evt.Error = err.Error()
	}
	_ = s.Write(evt)
}

// Query returns events between start and end, optionally filtered by
// handler, newest first.
func (s *Store) Query(start, end time.Time, handler string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, commit_id, handler, duration_ms, error
		FROM commit_events WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{start, end}

	if handler != "" {
		query += " AND handler = ?"
		args = append(args, handler)
	}

	query += " ORDER BY timestamp DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		var durationMS int64
		var errText sql.NullString

		if err := rows.Scan(&evt.ID, &evt.Timestamp, &evt.CommitID, &evt.Handler, &durationMS, &errText); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		evt.Duration = time.Duration(durationMS) * time.Millisecond
		if errText.Valid {
			evt.Error = errText.String
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Prune removes events older than the retention period.
func (s *Store) Prune() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	result, err := s.db.Exec("DELETE FROM commit_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the total number of events in the store.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM commit_events").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
