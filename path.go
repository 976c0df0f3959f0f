package durablefs

import (
	"errors"
	"strings"
	"syscall"

	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

// EnsurePathExists creates every missing directory of path, left to right.
//
// Each directory it creates is fsynced, and so is its parent, before the next
// component is looked at, so a crash can never leave a durable child under a
// lost parent entry. Existing directories are left alone, which makes the
// call idempotent. An empty path means the current directory.
//
// When mkdir fails, a readlink probe classifies the failure: FailCreateDirectory
// only if readlink reports EINVAL (not a symlink), FailBrokenLink otherwise. The
// probe races with concurrent changes to the path and is a best-effort
// classification only; the errno always comes from mkdir.
func (f *FileIO) EnsurePathExists(path string) Result {
	if path == "" {
		path = "."
	}

	// The leading separator of an absolute path is not a boundary: the
	// first prefix checked is "/a", not "/".
	end := 0
	for {
		end = nextSeparator(path, end)
		if r := f.ensureDir(path[:end]); !r.OK() {
			return r
		}
		if end == len(path) {
			return success
		}
	}
}

// nextSeparator returns the index of the first '/' after from, or len(path).
func nextSeparator(path string, from int) int {
	if i := strings.IndexByte(path[from+1:], '/'); i >= 0 {
		return from + 1 + i
	}
	return len(path)
}

func (f *FileIO) ensureDir(dir string) Result {
	mode, err := f.fs.Stat(dir)
	if err == nil {
		if !mode.IsDir() {
			return fail(FailNotDirectory, syscall.ENOTDIR)
		}
		return success
	}
	if errno := vfs.Errno(err); errno != syscall.ENOENT {
		return fail(FailStatFile, errno)
	}

	if err := f.fs.Mkdir(dir, f.dirPerm); err != nil {
		errno := vfs.Errno(err)
		// EINVAL means dir is not a symlink. Any other probe outcome,
		// including ENOENT, points at a link in the way.
		if _, probeErr := f.fs.Readlink(dir); probeErr == nil || vfs.Errno(probeErr) != syscall.EINVAL {
			return fail(FailBrokenLink, errno)
		}
		return fail(FailCreateDirectory, errno)
	}
	f.logger.Debugf(logging.NSPath+"created directory %q", dir)

	if err := f.fs.SyncDirInternal(dir); err != nil {
		return dirSyncResult(err)
	}
	if err := f.fs.SyncDirFor(dir); err != nil {
		return dirSyncResult(err)
	}
	return success
}

// dirSyncResult maps a directory sync failure: a directory that cannot be
// opened is FailOpenFile, anything else leaves the new directory not durable
// and is FailCreateDirectory.
func dirSyncResult(err error) Result {
	var dse *vfs.DirSyncError
	if errors.As(err, &dse) && dse.Stage == vfs.DirSyncOpen {
		return fail(FailOpenFile, vfs.Errno(err))
	}
	return fail(FailCreateDirectory, vfs.Errno(err))
}
