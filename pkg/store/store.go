// Package store provides the embedded, per-project file store (C4). Each
// project gets its own SQLite database file; there is no shared server and
// no cross-project table. The schema is embedded into the binary and
// applied as idempotent `CREATE TABLE IF NOT EXISTS` statements on open,
// the same shape the teacher used for its Postgres layer's deployment
// (embed once, apply automatically on startup) minus the migration
// tracking machinery a single-table-set embedded file doesn't need.
package store

import (
	stdsql "database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store wraps one project's SQLite file. Safe for concurrent use: SQLite
// itself serializes writers, and WAL mode lets readers proceed without
// blocking on an in-flight write, per §4.4's concurrency model.
type Store struct {
	db *stdsql.DB
}

// Open opens (creating if necessary) the SQLite file at path, enables WAL
// mode and foreign keys, and applies the embedded schema.
func Open(path string) (*Store, error) {
	db, err := stdsql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open project store %s: %w", path, err)
	}

	// A single physical connection keeps SQLite's single-writer model honest
	// without relying on callers to serialize themselves.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure project store %s: %w", path, err)
		}
	}

	s := &Store{db: db}
	if err := s.applySchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenFromDB wraps an already-open *sql.DB (e.g. an in-memory database in
// tests). The schema is still applied; WAL/foreign_keys/busy_timeout are
// the caller's responsibility since in-memory databases don't benefit from
// WAL.
func OpenFromDB(db *stdsql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.applySchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) applySchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying *sql.DB for packages (cleanup, telemetry) that
// need direct access beyond the typed methods below.
func (s *Store) DB() *stdsql.DB { return s.db }

func isNoRows(err error) bool {
	return errors.Is(err, stdsql.ErrNoRows)
}
