package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by Lock when another process already holds the
// lock.
var ErrLocked = errors.New("fsutil: directory already locked")

// FileLock is an advisory whole-file lock over one directory's LOCK file. It
// holds for the scope's lifetime and is released automatically by the host
// kernel if the process crashes without calling Unlock.
type FileLock struct {
	file *os.File
}

// Lock creates (if absent) dir/LOCK and takes an exclusive, non-blocking
// advisory lock on it. It guards Control.Init against two processes
// initializing the same directory concurrently.
func Lock(dir string) (*FileLock, error) {
	path := filepath.Join(dir, "LOCK")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fsutil: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("fsutil: flock: %w", err)
	}

	return &FileLock{file: f}, nil
}

// Unlock releases the lock and closes the underlying file descriptor.
func (l *FileLock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}
	l.file = nil
	return err
}
