package vfs

import (
	"path/filepath"
	"syscall"
	"testing"
)

func TestFaultInjectionFS_ErrorOneInAlways(t *testing.T) {
	fs := NewFaultInjectionFS(Default())
	fd := openRW(t, filepath.Join(t.TempDir(), "data"))
	fs.SetErrorOneIn(OpPwrite, 1, syscall.EIO)

	for i := 0; i < 5; i++ {
		if _, err := fs.Pwrite(fd, []byte("a"), 0); Errno(err) != syscall.EIO {
			t.Fatalf("call %d errno = %v, want EIO", i, Errno(err))
		}
	}
	if got := fs.Injected(OpPwrite); got != 5 {
		t.Errorf("Injected(pwrite) = %d, want 5", got)
	}

	fs.SetErrorOneIn(OpPwrite, 0, syscall.EIO)
	if _, err := fs.Pwrite(fd, []byte("a"), 0); err != nil {
		t.Errorf("Pwrite after disabling failed: %v", err)
	}
}

func TestFaultInjectionFS_ErrorOneInIsReplayable(t *testing.T) {
	run := func() []bool {
		fs := NewFaultInjectionFS(Default())
		fd := openRW(t, filepath.Join(t.TempDir(), "data"))
		fs.Seed(42)
		fs.SetErrorOneIn(OpPread, 3, syscall.EIO)
		buf := make([]byte, 1)
		var failed []bool
		for i := 0; i < 64; i++ {
			_, err := fs.Pread(fd, buf, 0)
			failed = append(failed, err != nil)
		}
		return failed
	}

	a, b := run(), run()
	hits := 0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs between runs with the same seed", i)
		}
		if a[i] {
			hits++
		}
	}
	if hits == 0 || hits == len(a) {
		t.Errorf("one-in-3 faults hit %d of %d calls", hits, len(a))
	}
}

func TestFaultInjectionFS_ScriptTakesPrecedence(t *testing.T) {
	fs := NewFaultInjectionFS(Default())
	fd := openRW(t, filepath.Join(t.TempDir(), "data"))
	fs.SetErrorOneIn(OpFtruncate, 1, syscall.EIO)
	fs.InjectErrno(OpFtruncate, syscall.EPERM)

	if err := fs.Ftruncate(fd, 0); Errno(err) != syscall.EPERM {
		t.Errorf("scripted errno = %v, want EPERM", Errno(err))
	}
	if err := fs.Ftruncate(fd, 0); Errno(err) != syscall.EIO {
		t.Errorf("random errno = %v, want EIO", Errno(err))
	}

	fs.ClearErrors()
	if err := fs.Ftruncate(fd, 0); err != nil {
		t.Errorf("Ftruncate after ClearErrors failed: %v", err)
	}
	if got := fs.Injected(OpFtruncate); got != 2 {
		t.Errorf("Injected(ftruncate) = %d, want 2", got)
	}
}
