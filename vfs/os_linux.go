//go:build linux

package vfs

import "golang.org/x/sys/unix"

// Filesystem magic numbers (statfs f_type) for mounts that reject
// fsync on a directory descriptor.
const (
	cifsMagic = 0xFF534D42
	smbMagic  = 0x0000517B
	smb2Magic = 0xFE534D42
	nfsMagic  = 0x00006969
)

func fallocate(fd int, off, length int64) error {
	return unix.Fallocate(fd, 0, off, length)
}

// syncDirAllowed is conservative: if statfs fails the sync is attempted.
func syncDirAllowed(fd int) bool {
	var st unix.Statfs_t
	if err := unix.Fstatfs(fd, &st); err != nil {
		return true
	}
	switch uint32(st.Type) {
	case cifsMagic, smbMagic, smb2Magic, nfsMagic:
		return false
	default:
		return true
	}
}
