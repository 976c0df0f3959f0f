package durablefs

import (
	"syscall"

	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

// allocUnsupported reports errnos meaning "this filesystem cannot
// pre-allocate": aufs (Azure shares) answers EBADF, FAT32 and ntfs-3g answer
// EFBIG above 4GB, and the rest answer EINVAL or EOPNOTSUPP.
func allocUnsupported(errno syscall.Errno) bool {
	switch errno {
	case syscall.EBADF, syscall.EINVAL, syscall.EFBIG, syscall.EOPNOTSUPP:
		return true
	default:
		return false
	}
}

// Allocate grows the allocated extent of fd to size bytes.
//
// fallocate is retried on EINTR up to the AllocRetry bound. When the
// filesystem cannot pre-allocate, Allocate instead writes a single zero byte
// at size-1, which extends the logical length but reserves no blocks. Any
// other fallocate error is reported as FailAllocFile.
func (f *FileIO) Allocate(fd FileHandle, size uint64) Result {
	if size == 0 {
		return success
	}

	var errno syscall.Errno
	for attempt := 0; attempt < f.allocRetry.MaxAttempts; attempt++ {
		err := f.fs.Fallocate(int(fd), 0, int64(size))
		if err == nil {
			return success
		}
		errno = vfs.Errno(err)
		switch {
		case errno == syscall.EINTR:
			f.allocRetry.pause()
		case allocUnsupported(errno):
			f.logger.Debugf(logging.NSAlloc+"fallocate on fd %d unsupported (%v), writing last byte at %d",
				fd, errno, size-1)
			return f.Write(fd, []byte{0}, size-1)
		default:
			return fail(FailAllocFile, errno)
		}
	}

	f.logger.Warnf(logging.NSAlloc+"fallocate on fd %d interrupted %d times, giving up", fd, f.allocRetry.MaxAttempts)
	return fail(FailAllocFile, errno)
}
