package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations/sqlite"

// DB is the tool execution audit database.
type DB struct {
	path string
	db   *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	store := &DB{path: path, db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// DB returns the underlying handle.
func (d *DB) DB() *sql.DB {
	return d.db
}

// Path returns the database location.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

type migration struct {
	version int
	name    string
	up      string
}

// loadMigrations reads the embedded goose-style files, ordered by the numeric
// prefix of their names.
func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationDir)
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s has no version prefix", e.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", e.Name(), err)
		}
		content, err := migrationFiles.ReadFile(path.Join(migrationDir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, migration{version: version, name: e.Name(), up: extractUpMigration(string(content))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrate applies every migration not yet recorded in schema_migrations, each
// in its own transaction.
func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []int
	if err := sqlscan.Select(ctx, d.db, &applied, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if slices.Contains(applied, m.version) {
			continue
		}
		if err := d.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) apply(ctx context.Context, m migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.up); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.name, err)
	}
	return nil
}

// extractUpMigration returns the statements between the goose Up markers.
func extractUpMigration(content string) string {
	var up []string
	inUp, inStatement := false, false

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.Contains(line, "-- +goose Up"):
			inUp = true
		case strings.Contains(line, "-- +goose Down"):
			return strings.Join(up, "\n")
		case strings.Contains(line, "-- +goose StatementBegin"):
			inStatement = true
		case strings.Contains(line, "-- +goose StatementEnd"):
			inStatement = false
		case inUp && inStatement:
			up = append(up, line)
		}
	}
	return strings.Join(up, "\n")
}
