// Package vfs is the boundary between durablefs and the operating system.
//
// Every primitive durablefs relies on (positional read/write, pre-allocation,
// truncate, stat, mkdir, readlink, directory sync) goes through FS, so that:
//   - production code runs on the raw POSIX calls (Default)
//   - tests run on FaultInjectionFS, which scripts errno sequences, short
//     transfers and unsupported pre-allocation on top of a real directory
//
// Errors returned by the OS implementation carry a syscall.Errno; use Errno
// to extract it.
package vfs

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// FS is the set of POSIX primitives durablefs is built on.
// File descriptors are plain ints owned by the caller.
type FS interface {
	// Pwrite writes p at off. It may write fewer bytes than len(p).
	Pwrite(fd int, p []byte, off int64) (int, error)

	// Pread reads into p from off. It returns 0, nil at end of file.
	Pread(fd int, p []byte, off int64) (int, error)

	// Fallocate reserves [off, off+length) for fd.
	Fallocate(fd int, off, length int64) error

	// Ftruncate sets the file length.
	Ftruncate(fd int, length int64) error

	// Fsize returns the current file length.
	Fsize(fd int) (int64, error)

	// Stat returns the mode of path, following symlinks.
	Stat(path string) (os.FileMode, error)

	// Mkdir creates a single directory.
	Mkdir(path string, perm uint32) error

	// Readlink returns the target of a symlink.
	Readlink(path string) (string, error)

	// OpenRead opens path read-only and returns the descriptor.
	OpenRead(path string) (int, error)

	// Close closes a descriptor.
	Close(fd int) error

	// SyncDirAllowed reports whether directory fsync is supported on the
	// filesystem holding fd. Network filesystems (CIFS, SMB, NFS) say no.
	SyncDirAllowed(fd int) bool

	// SyncDirInternal fsyncs dir itself so its entries are durable.
	SyncDirInternal(dir string) error

	// SyncDirFor fsyncs the parent directory of path so the entry for
	// path is durable.
	SyncDirFor(path string) error
}

// DirSyncStage identifies which step of a directory sync failed.
type DirSyncStage int

const (
	// DirSyncOpen means the directory could not be opened.
	DirSyncOpen DirSyncStage = iota
	// DirSyncFsync means fsync on the open directory failed.
	DirSyncFsync
)

func (s DirSyncStage) String() string {
	switch s {
	case DirSyncOpen:
		return "open"
	case DirSyncFsync:
		return "fsync"
	default:
		return "unknown"
	}
}

// DirSyncError is returned by SyncDirInternal and SyncDirFor.
type DirSyncError struct {
	Stage DirSyncStage
	Dir   string
	Err   error
}

func (e *DirSyncError) Error() string {
	return fmt.Sprintf("vfs: sync dir %q: %s: %v", e.Dir, e.Stage, e.Err)
}

func (e *DirSyncError) Unwrap() error { return e.Err }

// Errno extracts the errno carried by err.
// It returns 0 for a nil error and EIO for an error that carries none.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
