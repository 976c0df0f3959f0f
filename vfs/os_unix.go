//go:build unix

package vfs

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// osFS implements FS with raw system calls.
type osFS struct{}

// Default returns the OS implementation of FS.
func Default() FS {
	return osFS{}
}

func (osFS) Pwrite(fd int, p []byte, off int64) (int, error) {
	return unix.Pwrite(fd, p, off)
}

func (osFS) Pread(fd int, p []byte, off int64) (int, error) {
	return unix.Pread(fd, p, off)
}

func (osFS) Fallocate(fd int, off, length int64) error {
	return fallocate(fd, off, length)
}

func (osFS) Ftruncate(fd int, length int64) error {
	return unix.Ftruncate(fd, length)
}

func (osFS) Fsize(fd int) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

func (osFS) Stat(path string) (os.FileMode, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return fileMode(uint32(st.Mode)), nil
}

func (osFS) Mkdir(path string, perm uint32) error {
	return unix.Mkdir(path, perm)
}

func (osFS) Readlink(path string) (string, error) {
	for size := 128; ; size *= 2 {
		buf := make([]byte, size)
		n, err := unix.Readlink(path, buf)
		if err != nil {
			return "", err
		}
		if n < size {
			return string(buf[:n]), nil
		}
	}
}

func (osFS) OpenRead(path string) (int, error) {
	return unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
}

func (osFS) Close(fd int) error {
	return unix.Close(fd)
}

func (osFS) SyncDirAllowed(fd int) bool {
	return syncDirAllowed(fd)
}

func (osFS) SyncDirInternal(dir string) error {
	return syncDir(dir)
}

func (osFS) SyncDirFor(path string) error {
	return syncDir(filepath.Dir(path))
}

// syncDir opens dir and fsyncs it, skipping the fsync on filesystems that
// reject it.
func syncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return &DirSyncError{Stage: DirSyncOpen, Dir: dir, Err: err}
	}
	defer func() { _ = unix.Close(fd) }()

	if !syncDirAllowed(fd) {
		return nil
	}
	if err := unix.Fsync(fd); err != nil {
		return &DirSyncError{Stage: DirSyncFsync, Dir: dir, Err: err}
	}
	return nil
}

// fileMode converts st_mode bits into an os.FileMode.
func fileMode(mode uint32) os.FileMode {
	m := os.FileMode(mode & 0o777)
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		m |= os.ModeDir
	case unix.S_IFLNK:
		m |= os.ModeSymlink
	case unix.S_IFREG:
	default:
		m |= os.ModeIrregular
	}
	return m
}
