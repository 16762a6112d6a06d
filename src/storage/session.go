package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// GetSessionByID retrieves a session by its ID
func GetSessionByID(ctx context.Context, db sqlscan.Querier, sessionID string) (*Session, error) {
	query := `SELECT id, model, suppressed_calls, created_at, updated_at FROM sessions WHERE id = ?`
	var s Session
	err := sqlscan.Get(ctx, db, &s, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &s, nil
}

// GetLatestSession retrieves the most recently updated session
func GetLatestSession(ctx context.Context, db sqlscan.Querier) (*Session, error) {
	query := `SELECT id, model, suppressed_calls, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT 1`
	var s Session
	err := sqlscan.Get(ctx, db, &s, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No sessions exist
		}
		return nil, err
	}
	return &s, nil
}

// EnsureSession inserts the session if it is not known yet and bumps its
// updated_at otherwise.
func EnsureSession(ctx context.Context, db Execer, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	query := `INSERT INTO sessions (id, model, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET model = excluded.model, updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, session.ID, session.Model, session.CreatedAt, session.UpdatedAt)
	return err
}

// IncrementSuppressed counts a debounced call against the session.
func IncrementSuppressed(ctx context.Context, db Execer, sessionID string) error {
	query := `UPDATE sessions SET suppressed_calls = suppressed_calls + 1, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), sessionID)
	return err
}

// CreateToolExecution creates a new tool execution record in the database
func CreateToolExecution(ctx context.Context, db Execer, execution *ToolExecution) error {
	if execution.ID == "" {
		execution.ID = uuid.New().String()
	}
	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = time.Now()
	}
	if execution.Input == "" {
		execution.Input = "{}"
	}

	query := `INSERT INTO tool_executions (id, session_id, tool_name, input, output, error, status, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		execution.ID,
		execution.SessionID,
		execution.ToolName,
		execution.Input,
		execution.Output,
		execution.Error,
		execution.Status,
		execution.DurationMs,
		execution.CreatedAt,
	)
	return err
}

// ListToolExecutions returns the most recent executions, newest first. An
// empty sessionID lists across all sessions.
func ListToolExecutions(ctx context.Context, db sqlscan.Querier, sessionID string, limit int) ([]ToolExecution, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, session_id, tool_name, input, output, error, status, duration_ms, created_at FROM tool_executions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var executions []ToolExecution
	if err := sqlscan.Select(ctx, db, &executions, query, args...); err != nil {
		return nil, err
	}
	return executions, nil
}
