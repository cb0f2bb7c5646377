// Package store implements the SQLite-backed indexed store that the
// subsetdfa.Builder drives: schema management, the epsilon-closure build,
// the state registry, the transition expander, the dead-state reducer, and
// snapshotting.
//
// Every exported method that mutates state runs inside a single SQLite
// transaction and is atomic: on error the transaction is rolled back and
// the store is left exactly as if the call had never begun (spec.md §5).
// The Store is not safe for concurrent use by design — spec.md §5 calls for
// a single-threaded cooperative model, one logical builder per store handle
// — so the underlying *sql.DB is capped at one connection, which also keeps
// SQLite's single-writer semantics from ever producing SQLITE_BUSY.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"go.uber.org/zap"
)

// Store wraps a SQLite database holding the tables described in
// SPEC_FULL.md §3.
type Store struct {
	db     *sql.DB
	dsn    string
	logger *zap.Logger
	lock   fileLock
}

// Open creates or attaches to the SQLite database named by dsn and ensures
// its schema exists. dsn == ":memory:" (or "") opens an ephemeral,
// process-private database; any other value is treated as a file path and
// is advisory-locked for the lifetime of the returned Store (see
// lock_unix.go) so that two Builders can never share one file-backed store
// concurrently.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	lock, err := acquireFileLock(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: locking %s: %w", dsn, err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	// Single logical builder per store: serialize all access through one
	// connection rather than relying on SQLite's busy-timeout retries.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		lock.Release()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	s := &Store{db: db, dsn: dsn, logger: logger, lock: lock}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		lock.Release()
		return nil, err
	}
	if err := s.ensureDeadState(ctx); err != nil {
		db.Close()
		lock.Release()
		return nil, err
	}
	logger.Debug("store opened", zap.String("dsn", dsn))
	return s, nil
}

// Close releases the underlying database handle and any advisory lock held
// on the backing file.
func (s *Store) Close() error {
	s.logger.Debug("store closed", zap.String("dsn", s.dsn))
	err := s.db.Close()
	s.lock.Release()
	return err
}

// DSN returns the data source name the Store was opened with.
func (s *Store) DSN() string {
	return s.dsn
}
