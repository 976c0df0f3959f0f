package durablefs

import (
	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

// ReadFile fills buf from fd starting at offset.
//
// It returns the number of bytes read. On success that is len(buf). A read
// error gives FailReadFile with the errno; reaching end of file first gives
// FailEOF, so callers can tell a failing disk from a file that is too short.
// In both cases the count covers the bytes that did land in buf.
func (f *FileIO) ReadFile(fd FileHandle, buf []byte, offset uint64) (uint64, Result) {
	read := 0
	for read < len(buf) {
		n, err := f.fs.Pread(int(fd), buf[read:], int64(offset+uint64(read)))
		if err != nil {
			return uint64(read), fail(FailReadFile, vfs.Errno(err))
		}
		if n == 0 {
			f.logger.Debugf(logging.NSRead+"fd %d ended at offset %d, %d of %d bytes read",
				fd, offset+uint64(read), read, len(buf))
			return uint64(read), fail(FailEOF, 0)
		}
		read += n
	}
	return uint64(read), success
}

// OpenForRead opens path read-only. The caller owns the returned handle and
// must release it with Close.
func (f *FileIO) OpenForRead(path string) (FileHandle, Result) {
	fd, err := f.fs.OpenRead(path)
	if err != nil {
		return InvalidHandle, fail(FailOpenFile, vfs.Errno(err))
	}
	return FileHandle(fd), success
}

// Close closes a handle obtained from OpenForRead.
func (f *FileIO) Close(fd FileHandle) error {
	return f.fs.Close(int(fd))
}
