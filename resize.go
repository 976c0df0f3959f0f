package durablefs

import (
	"fmt"

	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

// ResizeFile sets the length of fd to size, which must be a multiple of
// PageSize; anything else is a programming error and panics.
//
// Growing goes through Allocate. Shrinking, or resizing to the current
// length, is a single ftruncate with no retry.
func (f *FileIO) ResizeFile(fd FileHandle, size uint64) Result {
	if size%PageSize != 0 {
		panic(fmt.Sprintf("durablefs: resize of fd %d to %d bytes is not page aligned (page size %d)",
			fd, size, PageSize))
	}

	current, err := f.fs.Fsize(int(fd))
	if err != nil {
		return fail(FailStatFile, vfs.Errno(err))
	}

	if size > uint64(current) {
		f.logger.Debugf(logging.NSResize+"growing fd %d from %d to %d bytes", fd, current, size)
		return f.Allocate(fd, size)
	}

	f.logger.Debugf(logging.NSResize+"truncating fd %d from %d to %d bytes", fd, current, size)
	if err := f.fs.Ftruncate(int(fd), int64(size)); err != nil {
		return fail(FailTruncateFile, vfs.Errno(err))
	}
	return success
}
