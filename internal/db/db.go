package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,              -- "entity" or "chunk"
	name TEXT NOT NULL,              -- entity name, or chunk source id
	entity_type TEXT,
	description TEXT,
	content TEXT,
	chunk_id TEXT,                   -- <SEP>-joined chunk references
	chunk_index INTEGER,
	placeholder INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE (kind, name)
);
CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	description TEXT,
	keywords TEXT,
	weight REAL NOT NULL DEFAULT 0,
	chunk_id TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE (source_id, target_id)
);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(node_id UNINDEXED, name, description, content);
`

// DB wraps a SQLite database connection
type DB struct {
	conn   *sql.DB
	Path   string
	hasFTS bool
}

// OpenDB opens (creating if needed) a SQLite knowledge graph store with WAL
// mode and foreign keys enabled. Use ":memory:" for a throwaway store.
func OpenDB(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" stores coherent and matches the
	// single-writer model.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	d := &DB{conn: conn, Path: path}
	// FTS5 is optional; search degrades to an empty result without it.
	if _, err := conn.Exec(ftsSchema); err == nil {
		d.hasFTS = true
	}
	return d, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// HasFTS reports whether full-text search is available.
func (d *DB) HasFTS() bool {
	return d.hasFTS
}
