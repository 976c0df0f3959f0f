package vfs

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the name of the lock file LockDir creates inside a directory.
const LockFileName = "LOCK"

// ErrLocked is returned by LockDir when another process holds the lock.
var ErrLocked = errors.New("vfs: directory is locked")

type dirLock struct {
	fl *flock.Flock
}

// LockDir takes an exclusive advisory lock on dir/LOCK without blocking.
// Close releases it.
func LockDir(dir string) (io.Closer, error) {
	fl := flock.New(filepath.Join(dir, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("vfs: lock %q: %w", dir, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &dirLock{fl: fl}, nil
}

func (l *dirLock) Close() error {
	return l.fl.Unlock()
}
