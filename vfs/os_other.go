//go:build unix && !linux

package vfs

import "golang.org/x/sys/unix"

// fallocate is not available outside Linux; callers fall back to a
// positional write at the target length.
func fallocate(_ int, _, _ int64) error {
	return unix.EOPNOTSUPP
}

func syncDirAllowed(_ int) bool {
	return true
}
