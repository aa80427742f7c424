// Package db persists dwellwatch runs and stop events in sqlite. The
// schema is managed by embedded migrations; opening a database always
// brings it to the latest version.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite database at path and
// applies pending migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}

	// Single writer; the busy timeout covers API reads racing the
	// ingestion loop's inserts.
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Run is one ingestion run over a single source descriptor.
type Run struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
}

// StopEvent is one Moving→Stopped transition.
type StopEvent struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	TrackID   int64     `json:"track_id"`
	ClassID   int       `json:"class_id"`
	CenterX   float64   `json:"center_x"`
	CenterY   float64   `json:"center_y"`
	StoppedAt time.Time `json:"stopped_at"`
}

// StartRun records a new run for the given source descriptor and returns
// its id.
func (db *DB) StartRun(source string, startedAt time.Time) (string, error) {
	runID := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO runs (run_id, source, started_at_ns) VALUES (?, ?, ?)`,
		runID, source, startedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return runID, nil
}

// RecordStopEvent appends one stop event.
func (db *DB) RecordStopEvent(ev StopEvent) error {
	_, err := db.Exec(
		`INSERT INTO stop_events (run_id, track_id, class_id, center_x, center_y, stopped_at_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.TrackID, ev.ClassID, ev.CenterX, ev.CenterY, ev.StoppedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record stop event: %w", err)
	}
	return nil
}

// Events returns the most recent stop events, newest first. limit <= 0
// means no limit.
func (db *DB) Events(limit int) ([]StopEvent, error) {
	query := `SELECT id, run_id, track_id, class_id, center_x, center_y, stopped_at_ns
		FROM stop_events ORDER BY stopped_at_ns DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stop events: %w", err)
	}
	defer rows.Close()

	var events []StopEvent
	for rows.Next() {
		var ev StopEvent
		var stoppedNs int64
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.TrackID, &ev.ClassID, &ev.CenterX, &ev.CenterY, &stoppedNs); err != nil {
			return nil, fmt.Errorf("failed to scan stop event: %w", err)
		}
		ev.StoppedAt = time.Unix(0, stoppedNs)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// EventCountsByClass returns the number of stop events per class id.
func (db *DB) EventCountsByClass() (map[int]int64, error) {
	rows, err := db.Query(`SELECT class_id, COUNT(*) FROM stop_events GROUP BY class_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var classID int
		var n int64
		if err := rows.Scan(&classID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[classID] = n
	}
	return counts, rows.Err()
}

// Stats returns row counts per table for the debug endpoint.
func (db *DB) Stats() (map[string]int64, error) {
	stats := make(map[string]int64)
	for _, table := range []string{"runs", "stop_events"} {
		var n int64
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}
