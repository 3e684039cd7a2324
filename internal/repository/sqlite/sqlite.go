// Package sqlite implements repository.AccountReader against the game
// server's SQLite account database.
//
// READ-ONLY BY CONSTRUCTION:
// The database file belongs to the game server — its schema, its account
// lifecycle, its password issuance. This package must never write to it,
// so the connection is opened with mode=ro and PRAGMA query_only=ON is
// set on top. There is deliberately no migration step: we do not create
// or alter tables we do not own.
//
// The driver is modernc.org/sqlite, a pure-Go translation of SQLite —
// no CGo, so cross-compilation stays painless. The blank import below is
// side-effect only: the package's init() registers itself with
// database/sql as the driver named "sqlite".
package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool over the account database and
// implements the AccountReader methods (see account.go).
//
// sql.DB is a pool, not a single connection, and is safe for concurrent
// use; since we never open a write transaction, no locking discipline
// beyond SQLite's own read concurrency is needed.
type DB struct {
	conn *sql.DB
}

// New opens the account database at dbPath read-only.
//
// The file must already exist: a missing or unreadable path is an
// initialization failure, reported immediately rather than on the first
// query. Opening a nonexistent file in read-write mode would silently
// create an empty database — with mode=ro the driver refuses, and the
// os.Stat check gives a clearer error message first.
func New(dbPath string) (*DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("sqlite: account database: %w", err)
	}

	// Belt and braces: mode=ro makes the OS-level open read-only, and
	// query_only makes the engine itself reject any statement that would
	// modify the database. Both are DSN pragmas so they apply to every
	// connection the pool opens, not just the first.
	dsn := fmt.Sprintf(
		"file:%s?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)",
		dbPath,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening account database: %w", err)
	}

	// Force a real connection now so a bad file surfaces here, not on
	// the first login attempt.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging account database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the connection pool. Callers should defer this right
// after New so the file handle is released even on a panic.
func (db *DB) Close() error {
	return db.conn.Close()
}
