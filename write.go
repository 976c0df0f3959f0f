package durablefs

import (
	"syscall"

	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

// Write writes all of buf to fd at offset.
//
// Short writes are continued until every byte is on the file. A failed write
// is final, with one exception: CIFS/NFS mounts can reject a write issued
// shortly after file creation with EINVAL. When the write fails with EINVAL
// and fd lives on a filesystem that does not allow directory sync, the write
// is retried per the WriteRetry policy (3 attempts, 200ms apart by default),
// blocking the caller meanwhile.
//
// Failures report FailPwriteWithRetries if any retry was made, FailPwrite
// otherwise, with the errno of the last attempt.
func (f *FileIO) Write(fd FileHandle, buf []byte, offset uint64) Result {
	written := 0
	attempts := 1
	for written < len(buf) {
		off := offset + uint64(written)
		n, err := f.fs.Pwrite(int(fd), buf[written:], int64(off))
		if err != nil {
			errno := vfs.Errno(err)
			if errno == syscall.EINVAL && attempts < f.writeRetry.MaxAttempts && !f.fs.SyncDirAllowed(int(fd)) {
				attempts++
				f.logger.Warnf(logging.NSWrite+"pwrite EINVAL on fd %d at offset %d, retrying (attempt %d/%d)",
					fd, off, attempts, f.writeRetry.MaxAttempts)
				f.writeRetry.pause()
				continue
			}
			if attempts > 1 {
				return fail(FailPwriteWithRetries, errno)
			}
			return fail(FailPwrite, errno)
		}
		// POSIX never returns 0 for a non-empty request; treat it as an
		// I/O error rather than spinning.
		if n <= 0 {
			return fail(FailPwrite, syscall.EIO)
		}
		written += n
	}
	return success
}
