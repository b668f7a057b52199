// Package store persists commit-diff snapshots in SQLite so fetched diffs can
// be browsed offline.
package store

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/talenthium/patchtree/internal/log"
)

// DB wraps the SQLite connection and hands out repositories.
type DB struct {
	conn      *sql.DB
	path      string
	snapshots *SnapshotRepository
}

// NewDB opens (creating if needed) the database at path and applies pending
// migrations. An existing file is copied to path+".bak" before migrating.
func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	if err := backup(path); err != nil {
		return nil, fmt.Errorf("backing up database: %w", err)
	}

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(wal)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatDB, "Opened snapshot database", "path", path)
	return &DB{conn: conn, path: path, snapshots: newSnapshotRepository(conn)}, nil
}

// backup copies an existing non-empty database file next to itself.
func backup(path string) error {
	src, err := os.Open(path) //nolint:gosec // G304: configured database path
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil || info.Size() == 0 {
		return err
	}

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // G304: derived from configured path
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Snapshots returns the snapshot repository.
func (db *DB) Snapshots() *SnapshotRepository {
	return db.snapshots
}

// Connection exposes the raw connection for tests and maintenance commands.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Close ends snapshot event subscriptions and closes the connection.
func (db *DB) Close() error {
	db.snapshots.events.Close()
	return db.conn.Close()
}
