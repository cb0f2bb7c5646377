package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schemaVersion is the only snapshot format this package writes or accepts.
// spec.md §6/§7 treat a version mismatch as fatal rather than something to
// migrate.
const schemaVersion = "v0"

// BackupToFile writes a byte-identical, restartable snapshot of the store
// to path using SQLite's VACUUM INTO, which takes its own read
// transaction and so never blocks on (or is blocked by) the caller holding
// other locks on this connection.
//
// version must equal "v0"; any other value is rejected with an error, not a
// format to be upgraded on the fly.
func (s *Store) BackupToFile(ctx context.Context, version, path string) error {
	if version != schemaVersion {
		return fmt.Errorf("store: unsupported snapshot version %q (only %q is supported)", version, schemaVersion)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return wrapStoreErr("backup to file", err)
	}
	s.logger.Debug("backup written", zap.String("path", path), zap.String("version", version))
	return nil
}
