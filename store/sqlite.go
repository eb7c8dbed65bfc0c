// SPDX-License-Identifier: MIT

package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;
`

// SQLiteStore keeps entries in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database file at cfg.Path, or a private in-memory
// database when cfg.InMemory is set, and creates the kv table.
func OpenSQLite(cfg Config) (*SQLiteStore, error) {
	path := cfg.Path
	if cfg.InMemory {
		path = ":memory:"
	}
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite", ErrPathRequired)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes writers and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)
	if !cfg.InMemory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if cfg.Truncate {
		if _, err := db.Exec(`DELETE FROM kv`); err != nil {
			db.Close()
			return nil, fmt.Errorf("truncate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the value under key.
func (ss *SQLiteStore) Get(key []byte) ([]byte, bool, error) {
	var val []byte
	err := ss.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	switch {
	case err == sql.ErrNoRows:
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("sqlite get: %w", err)
	}

	return val, true, nil
}

// PutIfAbsent inserts val unless key is present, then reports the stored value.
func (ss *SQLiteStore) PutIfAbsent(key, val []byte) ([]byte, bool, error) {
	res, err := ss.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, val)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite put: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("sqlite put: %w", err)
	}
	if n == 1 {
		return val, false, nil
	}
	actual, ok, err := ss.Get(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("sqlite put: key vanished after conflict")
	}

	return actual, true, nil
}

// Len returns the row count.
func (ss *SQLiteStore) Len() (int, error) {
	var n int
	if err := ss.db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite count: %w", err)
	}

	return n, nil
}

// Close closes the database.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}
