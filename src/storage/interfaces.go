package storage

import (
	"context"
	"database/sql"
)

// Execer runs statements that return no rows. *sql.DB and *sql.Tx satisfy it,
// so the helpers in this package work inside or outside a transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
