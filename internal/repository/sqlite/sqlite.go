// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C toolchain on every build machine
// and painful cross-compilation. modernc.org/sqlite is a pure Go translation
// of SQLite: no C compiler needed.
//
// SCHEMA:
// The schema lives in migrations/*.sql, embedded into the binary and applied
// by goose on startup. goose records applied versions in goose_db_version,
// so running New against an existing file is a no-op.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/sakif/linkup/internal/repository/sqlite/migrations"

	// The blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database. Tests use it.
const MemoryPath = ":memory:"

// DB wraps a sql.DB connection pool. UserStore and PostStore are thin views
// over it.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath, applies connection settings and
// runs pending migrations.
//
// dbPath examples:
//   - "data/linkup.db" → file-based database; the directory is created
//   - ":memory:"       → in-memory database, lost on Close
func New(ctx context.Context, dbPath string) (*DB, error) {
	if dbPath != MemoryPath && !strings.HasPrefix(dbPath, "file:") {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating data directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// SQLite allows a single writer anyway, and every new connection to
	// ":memory:" would be a brand-new empty database. PRAGMAs are also
	// per-connection. Pinning the pool to one connection keeps all three
	// consistent. The cost is that rows must be fully read and closed before
	// the next statement runs.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Wrap adopts an already-open pool without touching its schema. Tests use it
// with go-sqlmock to drive the store's error paths.
func Wrap(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// migrate applies every embedded migration that has not run yet.
func migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, conn, ".")
}

// Ping checks that the database still answers. The readiness probe uses it.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the Credential Store backed by db.
func (db *DB) Users() *UserStore {
	return &UserStore{db: db.conn}
}

// Posts returns the Content Store backed by db.
func (db *DB) Posts() *PostStore {
	return &PostStore{db: db.conn}
}
