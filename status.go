package durablefs

import (
	"errors"
	"fmt"
	"syscall"
)

// Status is the outcome kind of an operation.
// Values are part of the on-the-wire contract with callers and never change.
type Status uint32

const (
	Success Status = iota
	FailPwrite
	FailPwriteWithRetries
	FailAllocFile
	FailNoMem
	FailStatFile
	FailCreateDirectory
	FailBrokenLink
	FailNotDirectory
	FailOpenFile
	FailReadFile
	FailEOF
	FailTruncateFile
)

var statusNames = [...]string{
	Success:               "SUCCESS",
	FailPwrite:            "FAIL_PWRITE",
	FailPwriteWithRetries: "FAIL_PWRITE_WITH_RETRIES",
	FailAllocFile:         "FAIL_ALLOC_FILE",
	FailNoMem:             "FAIL_NOMEM",
	FailStatFile:          "FAIL_STAT_FILE",
	FailCreateDirectory:   "FAIL_CREATE_DIRECTORY",
	FailBrokenLink:        "FAIL_BROKEN_LINK",
	FailNotDirectory:      "FAIL_NOT_DIRECTORY",
	FailOpenFile:          "FAIL_OPEN_FILE",
	FailReadFile:          "FAIL_READ_FILE",
	FailEOF:               "FAIL_EOF",
	FailTruncateFile:      "FAIL_TRUNCATE_FILE",
}

// String returns the upper-case name of the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("STATUS(%d)", uint32(s))
}

// Sentinel errors, one per failure status. *Error values match them with
// errors.Is.
var (
	ErrPwrite            = errors.New("durablefs: pwrite failed")
	ErrPwriteWithRetries = errors.New("durablefs: pwrite failed after retries")
	ErrAllocFile         = errors.New("durablefs: file allocation failed")
	ErrNoMem             = errors.New("durablefs: out of memory")
	ErrStatFile          = errors.New("durablefs: stat failed")
	ErrCreateDirectory   = errors.New("durablefs: directory creation failed")
	ErrBrokenLink        = errors.New("durablefs: broken symlink in path")
	ErrNotDirectory      = errors.New("durablefs: path component is not a directory")
	ErrOpenFile          = errors.New("durablefs: open failed")
	ErrReadFile          = errors.New("durablefs: read failed")
	ErrEOF               = errors.New("durablefs: unexpected end of file")
	ErrTruncateFile      = errors.New("durablefs: truncate failed")
)

var statusErrors = [...]error{
	FailPwrite:            ErrPwrite,
	FailPwriteWithRetries: ErrPwriteWithRetries,
	FailAllocFile:         ErrAllocFile,
	FailNoMem:             ErrNoMem,
	FailStatFile:          ErrStatFile,
	FailCreateDirectory:   ErrCreateDirectory,
	FailBrokenLink:        ErrBrokenLink,
	FailNotDirectory:      ErrNotDirectory,
	FailOpenFile:          ErrOpenFile,
	FailReadFile:          ErrReadFile,
	FailEOF:               ErrEOF,
	FailTruncateFile:      ErrTruncateFile,
}

// sentinel returns the sentinel error for s, or nil for Success and
// unknown values.
func (s Status) sentinel() error {
	if int(s) < len(statusErrors) {
		return statusErrors[s]
	}
	return nil
}

// Result is the outcome of an operation.
// Errno is set only on failure, and only when the failing primitive
// reported one.
type Result struct {
	Status Status
	Errno  syscall.Errno
}

var success = Result{Status: Success}

func fail(status Status, errno syscall.Errno) Result {
	return Result{Status: status, Errno: errno}
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == Success
}

func (r Result) String() string {
	if r.Errno == 0 {
		return r.Status.String()
	}
	return fmt.Sprintf("%s (errno %d: %v)", r.Status, int(r.Errno), r.Errno)
}

// Err returns nil on success and an *Error otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Status: r.Status, Errno: r.Errno}
}

// Error is the error form of a failed Result.
// It unwraps to its errno and matches the sentinel of its status.
type Error struct {
	Status Status
	Errno  syscall.Errno
}

func (e *Error) Error() string {
	if e.Errno == 0 {
		return "durablefs: " + e.Status.String()
	}
	return fmt.Sprintf("durablefs: %s: %v", e.Status, e.Errno)
}

func (e *Error) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// Is matches the sentinel error for e.Status.
func (e *Error) Is(target error) bool {
	s := e.Status.sentinel()
	return s != nil && target == s
}
