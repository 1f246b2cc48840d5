// Package history keeps finished run sessions in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	mode          TEXT NOT NULL,
	workflow_id   TEXT NOT NULL DEFAULT '',
	workflow_name TEXT NOT NULL DEFAULT '',
	trigger_name  TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL,
	total         INTEGER NOT NULL,
	succeeded     INTEGER NOT NULL,
	failed        INTEGER NOT NULL,
	aborted       INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	finished_at   TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);

CREATE TABLE IF NOT EXISTS session_commands (
	session_id     TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	command_id     TEXT NOT NULL,
	name           TEXT NOT NULL,
	kind           TEXT NOT NULL,
	correlation_id TEXT NOT NULL,
	status         TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	started_at     TEXT NOT NULL,
	duration_ms    INTEGER NOT NULL,
	PRIMARY KEY (session_id, position)
);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// one connection: writes are serialized anyway and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSession stores a finished session with its command outcomes.
// Recording the same session twice replaces the earlier row.
func (s *Store) RecordSession(ctx context.Context, sum engine.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var finished any
	if sum.FinishedAt != nil {
		finished = formatTime(*sum.FinishedAt)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sum.ID); err != nil {
		return fmt.Errorf("replace session %s: %w", sum.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, workflow_id, workflow_name, trigger_name, state,
			total, succeeded, failed, aborted, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, string(sum.Mode), sum.WorkflowID, sum.WorkflowName, sum.Trigger, string(sum.State),
		sum.Total, sum.Succeeded, sum.Failed, sum.Aborted, formatTime(sum.CreatedAt), finished)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sum.ID, err)
	}

	for i, c := range sum.Commands {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_commands (session_id, position, command_id, name, kind,
				correlation_id, status, error, started_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.ID, i, c.CommandID, c.Name, string(c.Kind), c.CorrelationID, string(c.Status),
			c.Error, formatTime(c.StartedAt), c.DurationMs)
		if err != nil {
			return fmt.Errorf("insert command %s of %s: %w", c.CommandID, sum.ID, err)
		}
	}
	return tx.Commit()
}

const sessionColumns = `id, mode, workflow_id, workflow_name, trigger_name, state,
	total, succeeded, failed, aborted, created_at, finished_at`

// Recent returns up to limit sessions, newest first, without their
// command rows.
func (s *Store) Recent(ctx context.Context, limit int) ([]engine.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []engine.Summary
	for rows.Next() {
		sum, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Session returns one session with its commands in execution order.
func (s *Store) Session(ctx context.Context, id string) (engine.Summary, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sum, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Summary{}, false, nil
	}
	if err != nil {
		return engine.Summary{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT command_id, name, kind, correlation_id, status, error, started_at, duration_ms
		FROM session_commands WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return engine.Summary{}, false, fmt.Errorf("query commands of %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var c engine.CommandSummary
		var kind, status, started string
		if err := rows.Scan(&c.CommandID, &c.Name, &kind, &c.CorrelationID, &status, &c.Error, &started, &c.DurationMs); err != nil {
			return engine.Summary{}, false, fmt.Errorf("scan command: %w", err)
		}
		c.Kind = model.CommandKind(kind)
		c.Status = model.CommandStatus(status)
		if c.StartedAt, err = parseTime(started); err != nil {
			return engine.Summary{}, false, err
		}
		sum.Commands = append(sum.Commands, c)
	}
	return sum, true, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (engine.Summary, error) {
	var sum engine.Summary
	var mode, state, created string
	var finished sql.NullString
	err := sc.Scan(&sum.ID, &mode, &sum.WorkflowID, &sum.WorkflowName, &sum.Trigger, &state,
		&sum.Total, &sum.Succeeded, &sum.Failed, &sum.Aborted, &created, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return sum, err
	}
	if err != nil {
		return sum, fmt.Errorf("scan session: %w", err)
	}
	sum.Mode = model.ExecutionMode(mode)
	sum.State = model.SessionState(state)
	if sum.CreatedAt, err = parseTime(created); err != nil {
		return sum, err
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return sum, err
		}
		sum.FinishedAt = &t
	}
	return sum, nil
}

// Prune keeps the newest keep sessions and deletes the rest. It returns
// the number of deleted sessions.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
