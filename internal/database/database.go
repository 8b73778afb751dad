// Package database is the SQLite working store behind every npovscan
// command: discovered articles, the extraction worklist, feature rows,
// human and LLM labels, model snapshots and run records.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the store's connection pool.
type DB struct {
	conn *sql.DB
}

// Open opens the store at dbPath, creating the file and its directory on
// first use, and brings the schema up to date.
//
// The pragmas ride the DSN because the driver replays them on every new
// pool connection, not just the first. WAL lets the dashboard read while
// a pipeline run writes; the busy timeout makes a second writer wait out
// the current batch flush instead of failing with SQLITE_BUSY.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := upgradeSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("upgrading schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
