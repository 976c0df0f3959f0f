/*
Package durablefs is the file-I/O layer a storage engine builds its
write-ahead log and data files on.

It sits directly above the operating system's positional I/O primitives and
turns their hazards into a small, fixed set of outcomes:

  - positional writes may be short: Write loops until every byte is written
  - pre-allocation may be missing or broken (network shares, overlay
    filesystems): Allocate falls back to a single write at the last byte
  - a crash right after mkdir can lose the directory entry: EnsurePathExists
    fsyncs every directory it creates and its parent before going deeper
  - reads may be short: ReadFile loops and reports premature end of file
    separately from I/O errors
  - files are resized along 4096-byte page boundaries: ResizeFile

# Results

Every operation returns a Result holding a Status and, on failure, the errno
reported by the failing primitive. Status values are stable and never
renumbered. Callers that prefer error values use Result.Err, whose errors
match both the errno and the status sentinel with errors.Is:

	res := fio.Write(fd, page, off)
	if err := res.Err(); errors.Is(err, durablefs.ErrPwriteWithRetries) {
		// the file lives on a network share that kept rejecting the write
	}

# Concurrency

All operations block the calling goroutine. A FileIO holds only immutable
configuration and is safe for concurrent use; positional I/O lets goroutines
write disjoint ranges of one descriptor without locking. The layer never
serializes callers: two goroutines growing the same file must coordinate.

Descriptors, buffers and paths belong to the caller and are never retained.
*/
package durablefs
