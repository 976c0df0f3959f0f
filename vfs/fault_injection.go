package vfs

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
)

// Op names an FS primitive for fault injection and call accounting.
type Op string

const (
	OpPwrite     Op = "pwrite"
	OpPread      Op = "pread"
	OpFallocate  Op = "fallocate"
	OpFtruncate  Op = "ftruncate"
	OpFsize      Op = "fsize"
	OpStat       Op = "stat"
	OpMkdir      Op = "mkdir"
	OpReadlink   Op = "readlink"
	OpOpenRead   Op = "openread"
	OpSyncDir    Op = "syncdir"
	OpSyncParent Op = "syncparent"
)

// FaultInjectionFS wraps an FS and lets tests script failures.
//
// Injected errnos are queued per Op and consumed one per call, in order. A
// queued 0 lets that call through to the base FS, so sequences such as
// "fail, succeed, fail" can be expressed exactly.
//
// Directory operations are recorded in an ordered trace, and directories
// created through Mkdir are tracked until their parent is synced, so a crash
// can be simulated with DropUnsyncedDirs.
type FaultInjectionFS struct {
	base FS

	mu sync.Mutex

	scripts map[Op][]syscall.Errno
	calls   map[Op]int

	maxTransfer          int
	fallocateUnsupported bool
	syncDirAllowed       *bool
	filesystemActive     bool

	trace []string

	// probabilistic faults, see SetErrorOneIn
	oneIn    map[Op]oneInFault
	rng      *rand.Rand
	injected map[Op]int

	// directories created through Mkdir whose parent has not been synced yet
	unsyncedDirs map[string]struct{}
}

// NewFaultInjectionFS creates a new fault-injecting wrapper around base.
func NewFaultInjectionFS(base FS) *FaultInjectionFS {
	return &FaultInjectionFS{
		base:             base,
		scripts:          make(map[Op][]syscall.Errno),
		calls:            make(map[Op]int),
		filesystemActive: true,
		unsyncedDirs:     make(map[string]struct{}),
		oneIn:            make(map[Op]oneInFault),
		rng:              rand.New(rand.NewPCG(1, 1)),
		injected:         make(map[Op]int),
	}
}

// InjectErrno queues errnos to be returned by the next calls to op.
func (fs *FaultInjectionFS) InjectErrno(op Op, errnos ...syscall.Errno) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.scripts[op] = append(fs.scripts[op], errnos...)
}

// SetMaxTransfer caps the bytes moved by a single Pwrite or Pread.
// Zero removes the cap.
func (fs *FaultInjectionFS) SetMaxTransfer(n int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.maxTransfer = n
}

// SetFallocateUnsupported makes Fallocate fail with EINVAL, as it does on
// filesystems without pre-allocation support.
func (fs *FaultInjectionFS) SetFallocateUnsupported(unsupported bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fallocateUnsupported = unsupported
}

// SetSyncDirAllowed overrides the answer of SyncDirAllowed.
func (fs *FaultInjectionFS) SetSyncDirAllowed(allowed bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.syncDirAllowed = &allowed
}

// SetFilesystemActive enables or disables the filesystem.
// When disabled every mutating call fails with EIO.
func (fs *FaultInjectionFS) SetFilesystemActive(active bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.filesystemActive = active
}

// ClearErrors drops all queued errnos and behaviour overrides.
func (fs *FaultInjectionFS) ClearErrors() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.scripts = make(map[Op][]syscall.Errno)
	fs.maxTransfer = 0
	fs.fallocateUnsupported = false
	fs.syncDirAllowed = nil
	fs.filesystemActive = true
	fs.oneIn = make(map[Op]oneInFault)
}

// Calls returns how many times op has been invoked, injected failures included.
func (fs *FaultInjectionFS) Calls(op Op) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.calls[op]
}

// Trace returns the ordered directory events: "mkdir:<path>",
// "syncdir:<path>" and "syncparent:<path>".
func (fs *FaultInjectionFS) Trace() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return slices.Clone(fs.trace)
}

// UnsyncedDirs returns the directories created through Mkdir whose parent
// directory has not been synced since, sorted.
func (fs *FaultInjectionFS) UnsyncedDirs() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dirs := make([]string, 0, len(fs.unsyncedDirs))
	for d := range fs.unsyncedDirs {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

// DropUnsyncedDirs simulates a crash by removing every directory whose entry
// was never made durable.
func (fs *FaultInjectionFS) DropUnsyncedDirs() error {
	for _, d := range fs.UnsyncedDirs() {
		if err := os.RemoveAll(d); err != nil {
			return err
		}
	}
	fs.mu.Lock()
	fs.unsyncedDirs = make(map[string]struct{})
	fs.mu.Unlock()
	return nil
}

// enter counts a call and pops the next scripted errno for op.
// mutating calls fail with EIO while the filesystem is inactive.
func (fs *FaultInjectionFS) enter(op Op, mutating bool) syscall.Errno {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls[op]++
	if mutating && !fs.filesystemActive {
		return syscall.EIO
	}
	q := fs.scripts[op]
	if len(q) == 0 {
		return fs.rollLocked(op)
	}
	errno := q[0]
	fs.scripts[op] = q[1:]
	if errno != 0 {
		fs.injected[op]++
	}
	return errno
}

func (fs *FaultInjectionFS) clamp(p []byte) []byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.maxTransfer > 0 && len(p) > fs.maxTransfer {
		return p[:fs.maxTransfer]
	}
	return p
}

func (fs *FaultInjectionFS) record(event string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.trace = append(fs.trace, event)
}

func (fs *FaultInjectionFS) Pwrite(fd int, p []byte, off int64) (int, error) {
	if errno := fs.enter(OpPwrite, true); errno != 0 {
		return -1, errno
	}
	return fs.base.Pwrite(fd, fs.clamp(p), off)
}

func (fs *FaultInjectionFS) Pread(fd int, p []byte, off int64) (int, error) {
	if errno := fs.enter(OpPread, false); errno != 0 {
		return -1, errno
	}
	return fs.base.Pread(fd, fs.clamp(p), off)
}

func (fs *FaultInjectionFS) Fallocate(fd int, off, length int64) error {
	if errno := fs.enter(OpFallocate, true); errno != 0 {
		return errno
	}
	fs.mu.Lock()
	unsupported := fs.fallocateUnsupported
	fs.mu.Unlock()
	if unsupported {
		return syscall.EINVAL
	}
	return fs.base.Fallocate(fd, off, length)
}

func (fs *FaultInjectionFS) Ftruncate(fd int, length int64) error {
	if errno := fs.enter(OpFtruncate, true); errno != 0 {
		return errno
	}
	return fs.base.Ftruncate(fd, length)
}

func (fs *FaultInjectionFS) Fsize(fd int) (int64, error) {
	if errno := fs.enter(OpFsize, false); errno != 0 {
		return 0, errno
	}
	return fs.base.Fsize(fd)
}

func (fs *FaultInjectionFS) Stat(path string) (os.FileMode, error) {
	if errno := fs.enter(OpStat, false); errno != 0 {
		return 0, errno
	}
	return fs.base.Stat(path)
}

func (fs *FaultInjectionFS) Mkdir(path string, perm uint32) error {
	if errno := fs.enter(OpMkdir, true); errno != 0 {
		return errno
	}
	if err := fs.base.Mkdir(path, perm); err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	fs.mu.Lock()
	fs.trace = append(fs.trace, "mkdir:"+path)
	fs.unsyncedDirs[abs] = struct{}{}
	fs.mu.Unlock()
	return nil
}

func (fs *FaultInjectionFS) Readlink(path string) (string, error) {
	if errno := fs.enter(OpReadlink, false); errno != 0 {
		return "", errno
	}
	return fs.base.Readlink(path)
}

func (fs *FaultInjectionFS) OpenRead(path string) (int, error) {
	if errno := fs.enter(OpOpenRead, false); errno != 0 {
		return -1, errno
	}
	return fs.base.OpenRead(path)
}

func (fs *FaultInjectionFS) Close(fd int) error {
	return fs.base.Close(fd)
}

func (fs *FaultInjectionFS) SyncDirAllowed(fd int) bool {
	fs.mu.Lock()
	override := fs.syncDirAllowed
	fs.mu.Unlock()
	if override != nil {
		return *override
	}
	return fs.base.SyncDirAllowed(fd)
}

func (fs *FaultInjectionFS) SyncDirInternal(dir string) error {
	if errno := fs.enter(OpSyncDir, true); errno != 0 {
		return &DirSyncError{Stage: DirSyncFsync, Dir: dir, Err: errno}
	}
	if err := fs.base.SyncDirInternal(dir); err != nil {
		return err
	}
	fs.record("syncdir:" + dir)
	return nil
}

// SyncDirFor makes the entry for path durable, so path leaves the unsynced set.
func (fs *FaultInjectionFS) SyncDirFor(path string) error {
	if errno := fs.enter(OpSyncParent, true); errno != 0 {
		return &DirSyncError{Stage: DirSyncFsync, Dir: filepath.Dir(path), Err: errno}
	}
	if err := fs.base.SyncDirFor(path); err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	fs.mu.Lock()
	fs.trace = append(fs.trace, "syncparent:"+path)
	delete(fs.unsyncedDirs, abs)
	fs.mu.Unlock()
	return nil
}
