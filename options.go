package durablefs

import (
	"os"
	"time"

	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

// Logger is an alias for the logging.Logger interface.
type Logger = logging.Logger

// PageSize is the storage engine's page granularity. ResizeFile only
// accepts multiples of it.
const PageSize = 4096

// DefaultDirPerm is the mode EnsurePathExists creates directories with.
const DefaultDirPerm = 0o755

// RetryPolicy bounds a retry loop: at most MaxAttempts calls in total, with
// Delay between consecutive calls.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

var (
	// DefaultWriteRetry absorbs the EINVAL some CIFS/NFS mounts return for a
	// write issued right after file creation.
	DefaultWriteRetry = RetryPolicy{MaxAttempts: 3, Delay: 200 * time.Millisecond}

	// DefaultAllocRetry absorbs EINTR from fallocate.
	DefaultAllocRetry = RetryPolicy{MaxAttempts: 1024}
)

// sanitize fills a zero policy from def and clamps negative values.
func (p RetryPolicy) sanitize(def RetryPolicy) RetryPolicy {
	if p.MaxAttempts == 0 && p.Delay == 0 {
		return def
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

func (p RetryPolicy) pause() {
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}
}

// Options configures a FileIO.
type Options struct {
	// FS supplies the OS primitives.
	// If nil, vfs.Default() is used.
	FS vfs.FS

	// Logger receives retry warnings and debug traces.
	// If nil, nothing is logged.
	Logger Logger

	// WriteRetry bounds the network-filesystem EINVAL retry in Write.
	// Default: 3 attempts, 200ms apart.
	WriteRetry RetryPolicy

	// AllocRetry bounds the EINTR retry in Allocate.
	// Default: 1024 attempts, no delay.
	AllocRetry RetryPolicy

	// DirPerm is the mode for directories created by EnsurePathExists.
	// Default: 0755.
	DirPerm os.FileMode
}

// DefaultOptions returns a new Options with default values.
func DefaultOptions() *Options {
	return &Options{
		FS:         nil, // Will use vfs.Default()
		Logger:     nil, // Will use logging.Discard
		WriteRetry: DefaultWriteRetry,
		AllocRetry: DefaultAllocRetry,
		DirPerm:    DefaultDirPerm,
	}
}

// FileIO runs the durable file operations against an FS.
// It holds only immutable configuration and is safe for concurrent use.
type FileIO struct {
	fs         vfs.FS
	logger     Logger
	writeRetry RetryPolicy
	allocRetry RetryPolicy
	dirPerm    uint32
}

// New creates a FileIO. A nil opts is the same as DefaultOptions().
func New(opts *Options) *FileIO {
	if opts == nil {
		opts = DefaultOptions()
	}
	f := &FileIO{
		fs:         opts.FS,
		logger:     logging.OrDiscard(opts.Logger),
		writeRetry: opts.WriteRetry.sanitize(DefaultWriteRetry),
		allocRetry: opts.AllocRetry.sanitize(DefaultAllocRetry),
		dirPerm:    uint32(opts.DirPerm.Perm()),
	}
	if f.fs == nil {
		f.fs = vfs.Default()
	}
	if f.dirPerm == 0 {
		f.dirPerm = DefaultDirPerm
	}
	return f
}

// FileHandle is a caller-owned open file descriptor.
type FileHandle int

// InvalidHandle is returned by OpenForRead on failure.
const InvalidHandle FileHandle = -1

// HandleOf returns the descriptor of f. f must stay open, and referenced,
// for as long as the handle is used.
func HandleOf(f *os.File) FileHandle {
	return FileHandle(f.Fd())
}
