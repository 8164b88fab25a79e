package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome classifies how a recorded session ended.
type Outcome string

const (
	// OutcomeRunning marks a session that has started and not yet ended.
	OutcomeRunning Outcome = "running"
	// OutcomeStopped marks a graceful stop: flushed, checkpointed, clean.
	OutcomeStopped Outcome = "stopped"
	// OutcomeFatal marks a session that died on an unrecoverable error.
	OutcomeFatal Outcome = "fatal"
	// OutcomeInterrupted marks a session that never wrote an ending row.
	// It is applied retroactively when a later session starts on the
	// same output directory.
	OutcomeInterrupted Outcome = "interrupted"
)

// Run is one session of the digit stream: a single process invocation
// working on an output directory. A resumed stream keeps its RunID
// across many sessions; each session gets its own ID.
type Run struct {
	ID          string
	RunID       string
	OutputPath  string
	StartedAt   time.Time
	EndedAt     time.Time // zero while the session is open
	StartDigits uint64
	EndDigits   uint64
	Outcome     Outcome
}

// Store is the SQLite-backed session ledger behind `pistream history`.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating it and its schema if needed.
func Open(path string) (*Store, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			run_id       TEXT NOT NULL,
			output_path  TEXT NOT NULL,
			started_at   INTEGER NOT NULL,
			ended_at     INTEGER,
			start_digits INTEGER NOT NULL,
			end_digits   INTEGER NOT NULL,
			outcome      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs (run_id);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 { return value.UTC().UnixMilli() }

func fromMillis(value int64) time.Time { return time.UnixMilli(value).UTC() }

// RecordStart inserts an open session row. Any session still marked
// running for the same output path is retroactively marked interrupted:
// the directory lock guarantees it cannot actually be running.
func (s *Store) RecordStart(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET outcome = ? WHERE output_path = ? AND outcome = ?`,
		OutcomeInterrupted, run.OutputPath, OutcomeRunning)
	if err != nil {
		return fmt.Errorf("failed to sweep stale sessions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, run_id, output_path, started_at, ended_at, start_digits, end_digits, outcome)
		 VALUES (?, ?, ?, ?, NULL, ?, ?, ?)`,
		run.ID, run.RunID, run.OutputPath, toMillis(run.StartedAt),
		run.StartDigits, run.StartDigits, OutcomeRunning)
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// RecordProgress updates the digit high-water mark of an open session,
// so that even an interrupted session leaves a useful row behind.
func (s *Store) RecordProgress(ctx context.Context, id string, endDigits uint64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET end_digits = ? WHERE id = ?`, endDigits, id)
	if err != nil {
		return fmt.Errorf("failed to record session progress: %w", err)
	}
	return nil
}

// RecordEnd closes a session row.
func (s *Store) RecordEnd(ctx context.Context, id string, endDigits uint64, outcome Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, end_digits = ?, outcome = ? WHERE id = ?`,
		toMillis(time.Now()), endDigits, outcome, id)
	if err != nil {
		return fmt.Errorf("failed to record session end: %w", err)
	}
	return nil
}

// Recent returns the most recently started sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, output_path, started_at, ended_at, start_digits, end_digits, outcome
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			started int64
			ended   sql.NullInt64
			outcome string
		)
		if err := rows.Scan(&run.ID, &run.RunID, &run.OutputPath, &started, &ended,
			&run.StartDigits, &run.EndDigits, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		run.StartedAt = fromMillis(started)
		if ended.Valid {
			run.EndedAt = fromMillis(ended.Int64)
		}
		run.Outcome = Outcome(outcome)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return runs, nil
}
