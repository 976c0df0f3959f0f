package durablefs

// std is the FileIO behind the package-level functions: OS primitives,
// default retry policies, no logging.
var std = New(nil)

// Write writes all of buf to fd at offset using the default FileIO.
func Write(fd FileHandle, buf []byte, offset uint64) Result {
	return std.Write(fd, buf, offset)
}

// Allocate grows fd to size bytes using the default FileIO.
func Allocate(fd FileHandle, size uint64) Result {
	return std.Allocate(fd, size)
}

// EnsurePathExists creates and syncs the missing directories of path using
// the default FileIO.
func EnsurePathExists(path string) Result {
	return std.EnsurePathExists(path)
}

// ReadFile fills buf from fd at offset using the default FileIO.
func ReadFile(fd FileHandle, buf []byte, offset uint64) (uint64, Result) {
	return std.ReadFile(fd, buf, offset)
}

// OpenForRead opens path read-only using the default FileIO.
func OpenForRead(path string) (FileHandle, Result) {
	return std.OpenForRead(path)
}

// ResizeFile sets fd to size bytes using the default FileIO.
func ResizeFile(fd FileHandle, size uint64) Result {
	return std.ResizeFile(fd, size)
}
