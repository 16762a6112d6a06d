package storage

import (
	"context"
	"fmt"
)

// AuditLog records tool executions for one chat session.
type AuditLog struct {
	db        *DB
	sessionID string
}

// NewAuditLog registers the session and returns a log bound to it.
func NewAuditLog(ctx context.Context, db *DB, sessionID, model string) (*AuditLog, error) {
	if err := EnsureSession(ctx, db.DB(), &Session{ID: sessionID, Model: model}); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}
	return &AuditLog{db: db, sessionID: sessionID}, nil
}

// SessionID returns the bound session.
func (a *AuditLog) SessionID() string {
	return a.sessionID
}

// RecordToolExecution stores one dispatched call.
func (a *AuditLog) RecordToolExecution(ctx context.Context, execution *ToolExecution) error {
	execution.SessionID = a.sessionID
	return CreateToolExecution(ctx, a.db.DB(), execution)
}

// RecordSuppressed counts one debounced call.
func (a *AuditLog) RecordSuppressed(ctx context.Context) error {
	return IncrementSuppressed(ctx, a.db.DB(), a.sessionID)
}
