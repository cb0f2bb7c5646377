//go:build unix

package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an advisory, exclusive, process-local lock on a store's
// backing file. It enforces spec.md §5's "exclusive to one builder" rule
// for file-backed DSNs; ":memory:" stores never touch the filesystem and so
// get a no-op lock.
type fileLock struct {
	f *os.File
}

// acquireFileLock flocks dsn exclusively and non-blocking, failing fast
// rather than queuing behind a second builder (spec.md §5: two builders
// against one file-backed store is a usage error, not something to wait
// out).
func acquireFileLock(dsn string) (fileLock, error) {
	if dsn == ":memory:" || dsn == "" {
		return fileLock{}, nil
	}

	f, err := os.OpenFile(dsn+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fileLock{}, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return fileLock{}, fmt.Errorf("flock %s: already held by another builder: %w", dsn, err)
	}
	return fileLock{f: f}, nil
}

// Release unlocks and closes the lock file. It is safe to call on the zero
// value (the ":memory:" case).
func (l fileLock) Release() {
	if l.f == nil {
		return
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
}
