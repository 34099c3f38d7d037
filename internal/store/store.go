// Package store provides the persistent rule relation: a SQLite-backed
// table of compiled substitution rules, fenced by a schema version
// (PRAGMA user_version), with dedup-on-insert and locale-fallback
// fetch. See DESIGN.md for why PRAGMA user_version stands in for the
// spec's "singleton version row".
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is bumped on any schema change. A store whose
// user_version doesn't match is left untouched and flagged through
// Store.VersionMismatch.
const currentSchemaVersion = 1

// Store is a handle to the on-disk rule relation.
//
// VersionMismatch is set when the database already exists with a
// user_version different from currentSchemaVersion. Per spec §7, the
// two callers react differently: the fetch path (runtime) treats this
// as "no rules" and proceeds; the insert path (compile time) must
// raise a fatal error asking the user to repair/remove the database,
// since silently rebuilding would destroy rules compiled by other
// themes sharing the same store.
type Store struct {
	db              *sql.DB
	VersionMismatch bool
}

// Open opens (creating if necessary) the SQLite database at path and
// applies pragmas. It never silently discards an existing,
// version-mismatched schema; see VersionMismatch.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open rule store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open rule store: ping: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	mismatch, err := ensureVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, VersionMismatch: mismatch}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}
	return nil
}

// ensureVersion checks PRAGMA user_version against currentSchemaVersion.
// A fresh database (user_version 0 with no rules table yet) is
// initialized in place. Any other mismatch is reported back via the
// returned bool without touching the schema.
func ensureVersion(db *sql.DB) (mismatch bool, err error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return false, fmt.Errorf("read schema version: %w", err)
	}

	if version == currentSchemaVersion {
		return false, nil
	}

	if version == 0 && !hasRulesTable(db) {
		if _, err := db.Exec(schemaSQL); err != nil {
			return false, fmt.Errorf("apply schema: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return false, fmt.Errorf("set schema version: %w", err)
		}
		return false, nil
	}

	return true, nil
}

func hasRulesTable(db *sql.DB) bool {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'rules'`).Scan(&name)
	return err == nil
}
