// Package index keeps a SQLite search index over the note library, with
// optional FTS5 full-text search and a resolved wiki-link table for backlinks.
//
// The index is derived data. The library is the source of truth, and Sync
// rebuilds anything missing, so a schema change simply drops the old tables.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is stored in PRAGMA user_version. Bump it whenever the
// tables below change shape.
const schemaVersion = 2

var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		folder_id  TEXT NOT NULL DEFAULT '',
		path       TEXT NOT NULL DEFAULT '',
		checksum   TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '[]',
		body       TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_folder ON notes(folder_id)`,
	`CREATE TABLE IF NOT EXISTS links (
		source TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		target TEXT NOT NULL,
		UNIQUE(source, target)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_target ON links(target)`,
}

var dropSQL = []string{
	`DROP TABLE IF EXISTS links`,
	`DROP TABLE IF EXISTS notes_fts`,
	`DROP TABLE IF EXISTS notes`,
}

// DB is the search and backlink index.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the index database at path. A database written
// by a different schema version is emptied and recreated.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("index: read schema version: %w", err)
	}
	if version != schemaVersion {
		for _, stmt := range dropSQL {
			if _, err := conn.Exec(stmt); err != nil {
				return fmt.Errorf("index: drop stale schema: %w", err)
			}
		}
	}
	for _, stmt := range schemaSQL {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("index: apply schema: %w", err)
		}
	}
	if err := initFTS(conn); err != nil {
		return fmt.Errorf("index: apply fts schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("index: write schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
