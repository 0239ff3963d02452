// Package runlog keeps a local registry of completed acquisition runs so
// datasets on disk can be traced back to sample, profile and outcome.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run outcome values.
const (
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
	StatusFailed    = "failed"
)

// Run is one registry entry.
type Run struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time
	SampleName     string
	SpecimenID     string
	Storage        string
	Notes          string
	ProfileName    string
	ProfileHash    string
	Backend        string
	OutputPath     string
	CapturedCycles int
	Status         string
	Error          string
}

// DB wraps the sqlite handle behind the registry operations.
type DB struct {
	conn *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	sample_name TEXT NOT NULL,
	specimen_id TEXT NOT NULL,
	storage TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	profile_name TEXT NOT NULL,
	profile_hash TEXT NOT NULL,
	backend TEXT NOT NULL,
	output_path TEXT NOT NULL,
	captured_cycles INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT ''
)`

// Open opens (creating if needed) the registry database at path.
// ":memory:" is accepted for tests.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run registry: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Record inserts a finished run and returns its registry id.
func (d *DB) Record(r Run) (int64, error) {
	res, err := d.conn.Exec(`INSERT INTO runs
		(started_at, finished_at, sample_name, specimen_id, storage, notes,
		 profile_name, profile_hash, backend, output_path, captured_cycles, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.SampleName, r.SpecimenID, r.Storage, r.Notes,
		r.ProfileName, r.ProfileHash, r.Backend, r.OutputPath,
		r.CapturedCycles, r.Status, r.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run record: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (d *DB) List(limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, sample_name, specimen_id, storage, notes,
		profile_name, profile_hash, backend, output_path, captured_cycles, status, error
		FROM runs ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = d.conn.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = d.conn.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.SampleName, &r.SpecimenID,
			&r.Storage, &r.Notes, &r.ProfileName, &r.ProfileHash, &r.Backend,
			&r.OutputPath, &r.CapturedCycles, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// BySample returns all runs for one sample name, newest first.
func (d *DB) BySample(sampleName string) ([]Run, error) {
	all, err := d.List(0)
	if err != nil {
		return nil, err
	}
	var matched []Run
	for _, r := range all {
		if r.SampleName == sampleName {
			matched = append(matched, r)
		}
	}
	return matched, nil
}
