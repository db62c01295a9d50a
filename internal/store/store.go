// Package store mirrors a built search index into SQLite with optional FTS5
// full-text search. Every build replaces the whole snapshot.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	path         TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	slug         TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	domain       TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	updated      TEXT NOT NULL DEFAULT '',
	excerpt      TEXT NOT NULL DEFAULT '',
	reading_time INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS item_facets (
	path  TEXT NOT NULL REFERENCES items(path) ON DELETE CASCADE,
	kind  TEXT NOT NULL,
	value TEXT NOT NULL,
	UNIQUE(path, kind, value)
);

CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);
CREATE INDEX IF NOT EXISTS idx_item_facets_value ON item_facets(kind, value);
`

// Facet kinds stored in item_facets.
const (
	KindDomain   = "domain"
	KindCategory = "category"
	KindTag      = "tag"
	KindTech     = "tech"
	KindIntent   = "intent"
)

// DB wraps a sql.DB with snapshot operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
