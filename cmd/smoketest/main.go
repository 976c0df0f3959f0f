// End-to-end smoke test for durablefs.
//
// Use `smoketest` to run a fast end-to-end check of every file operation on
// the real filesystem of the target directory. Point -dir at a CIFS or NFS
// mount to check the network-filesystem paths.
//
// `smoketest` locks its working directory, creates a nested path, writes
// pages concurrently, verifies them by checksum, resizes and reads back.
//
// Run a smoke test:
//
// ```bash
// ./bin/smoketest -pages=1024 -workers=8 -v
// ```
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/aalhour/durablefs"
	"github.com/aalhour/durablefs/internal/logging"
	"github.com/aalhour/durablefs/vfs"
)

var (
	numPages = flag.Int("pages", 256, "Number of pages to write")
	workers  = flag.Int("workers", 8, "Concurrent writers")
	dirPath  = flag.String("dir", "", "Working directory (default: temp directory)")
	keepDir  = flag.Bool("keep", false, "Keep working directory after test")
	verbose  = flag.Bool("v", false, "Verbose output")
	cleanup  = flag.Bool("cleanup", false, "Clean up old test directories before running")
	logLevel = flag.String("log-level", "warn", "durablefs log level: error, warn, info, debug")
)

const testDirPrefix = "durablefs-smoke-"

var logger *logging.DefaultLogger

func main() {
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fatal("%v", err)
	}
	if *verbose && level < logging.LevelInfo {
		level = logging.LevelInfo
	}
	logger = logging.NewDefaultLogger(level)
	logger.SetFatalHandler(func(string) { os.Exit(1) })

	if *cleanup {
		cleanupOldTestDirs()
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║           durablefs Smoke Test                               ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Pages: %d x %d bytes, Workers: %d\n", *numPages, durablefs.PageSize, *workers)
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()

	var testDir string
	if *dirPath == "" {
		testDir, err = os.MkdirTemp("", testDirPrefix+"*")
		if err != nil {
			fatal("Failed to create temp dir: %v", err)
		}
		if !*keepDir {
			defer os.RemoveAll(testDir)
		}
	} else {
		testDir = *dirPath
		if res := durablefs.EnsurePathExists(testDir); !res.OK() {
			fatal("Failed to create %s: %v", testDir, res)
		}
	}
	fmt.Printf("📁 Working directory: %s\n", testDir)

	lock, err := vfs.LockDir(testDir)
	if err != nil {
		fatal("Failed to lock %s: %v", testDir, err)
	}
	defer lock.Close()

	fio := durablefs.New(&durablefs.Options{Logger: logger})

	passed := 0
	failed := 0

	tests := []struct {
		name string
		fn   func(*durablefs.FileIO, string) error
	}{
		{"Ensure Nested Path", testEnsurePath},
		{"Path Through a File", testPathThroughFile},
		{"Directory Lock", testDirLock},
		{"Allocate", testAllocate},
		{"Resize Grow and Shrink", testResize},
		{"Concurrent Page Writes", testConcurrentPages},
		{"Read Past EOF", testReadEOF},
		{"Network FS Write Retry", testWriteRetry},
		{"Directory Sync Trace", testDirSyncTrace},
	}

	for _, t := range tests {
		fmt.Printf("\n🧪 Test: %s\n", t.name)
		testPath := filepath.Join(testDir, sanitizeName(t.name))
		os.RemoveAll(testPath)

		start := time.Now()
		err := t.fn(fio, testPath)
		elapsed := time.Since(start)

		if err != nil {
			fmt.Printf("   ❌ FAILED: %v (%v)\n", err, elapsed)
			failed++
		} else {
			fmt.Printf("   ✅ PASSED (%v)\n", elapsed)
			passed++
		}
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)
	if failed > 0 {
		lock.Close()
		logger.Fatalf(logging.NSSmoke+"%d of %d tests failed", failed, passed+failed)
	}
	fmt.Println("✅ SMOKE TEST PASSED")

	if *keepDir {
		fmt.Printf("\n📁 Working directory kept at: %s\n", testDir)
	}
}

func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for _, c := range name {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			result = append(result, byte(c))
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// createFile ensures the parent of path and creates path empty.
func createFile(fio *durablefs.FileIO, path string) (*os.File, durablefs.FileHandle, error) {
	if res := fio.EnsurePathExists(filepath.Dir(path)); !res.OK() {
		return nil, durablefs.InvalidHandle, fmt.Errorf("ensure %s: %w", filepath.Dir(path), res.Err())
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, durablefs.InvalidHandle, err
	}
	return f, durablefs.HandleOf(f), nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Test 1: nested directories are created, then found again
func testEnsurePath(fio *durablefs.FileIO, path string) error {
	nested := filepath.Join(path, "db", "000001", "wal")
	if res := fio.EnsurePathExists(nested); !res.OK() {
		return fmt.Errorf("first call: %w", res.Err())
	}
	if res := fio.EnsurePathExists(nested); !res.OK() {
		return fmt.Errorf("second call: %w", res.Err())
	}
	info, err := os.Stat(nested)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", nested)
	}
	log("  Created %s", nested)
	return nil
}

// Test 2: a regular file in the middle of the path is reported
func testPathThroughFile(fio *durablefs.FileIO, path string) error {
	f, _, err := createFile(fio, filepath.Join(path, "blocker"))
	if err != nil {
		return err
	}
	f.Close()

	res := fio.EnsurePathExists(filepath.Join(path, "blocker", "sub"))
	if !errors.Is(res.Err(), durablefs.ErrNotDirectory) {
		return fmt.Errorf("expected FAIL_NOT_DIRECTORY, got %v", res)
	}
	log("  Got %v", res)
	return nil
}

// Test 3: a second lock on the same directory is refused
func testDirLock(fio *durablefs.FileIO, path string) error {
	if res := fio.EnsurePathExists(path); !res.OK() {
		return res.Err()
	}
	first, err := vfs.LockDir(path)
	if err != nil {
		return fmt.Errorf("first lock: %w", err)
	}
	defer first.Close()

	if second, err := vfs.LockDir(path); !errors.Is(err, vfs.ErrLocked) {
		if second != nil {
			second.Close()
		}
		return fmt.Errorf("second lock: expected ErrLocked, got %v", err)
	}
	return nil
}

// Test 4: allocation grows the file and keeps its contents
func testAllocate(fio *durablefs.FileIO, path string) error {
	file := filepath.Join(path, "alloc.dat")
	f, fd, err := createFile(fio, file)
	if err != nil {
		return err
	}
	defer f.Close()

	header := []byte("durablefs")
	if res := fio.Write(fd, header, 0); !res.OK() {
		return fmt.Errorf("write header: %w", res.Err())
	}
	want := uint64(*numPages) * durablefs.PageSize
	if res := fio.Allocate(fd, want); !res.OK() {
		return fmt.Errorf("allocate: %w", res.Err())
	}
	size, err := fileSize(file)
	if err != nil {
		return err
	}
	if uint64(size) != want {
		return fmt.Errorf("size %d, want %d", size, want)
	}

	buf := make([]byte, len(header))
	if _, res := fio.ReadFile(fd, buf, 0); !res.OK() {
		return fmt.Errorf("read header: %w", res.Err())
	}
	if !bytes.Equal(buf, header) {
		return fmt.Errorf("header clobbered: %q", buf)
	}
	log("  Allocated %d bytes", want)
	return nil
}

// Test 5: resize up, down and to zero
func testResize(fio *durablefs.FileIO, path string) error {
	file := filepath.Join(path, "resize.dat")
	f, fd, err := createFile(fio, file)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, pages := range []uint64{8, 2, 16, 16, 0} {
		want := pages * durablefs.PageSize
		if res := fio.ResizeFile(fd, want); !res.OK() {
			return fmt.Errorf("resize to %d pages: %w", pages, res.Err())
		}
		size, err := fileSize(file)
		if err != nil {
			return err
		}
		if uint64(size) != want {
			return fmt.Errorf("after resize to %d pages: size %d, want %d", pages, size, want)
		}
		log("  Resized to %d pages", pages)
	}
	return nil
}

// Test 6: disjoint pages written concurrently all read back intact
func testConcurrentPages(fio *durablefs.FileIO, path string) error {
	file := filepath.Join(path, "pages.dat")
	f, fd, err := createFile(fio, file)
	if err != nil {
		return err
	}
	defer f.Close()

	n := *numPages
	if res := fio.ResizeFile(fd, uint64(n)*durablefs.PageSize); !res.OK() {
		return fmt.Errorf("resize: %w", res.Err())
	}

	sums := make([]uint64, n)
	var g errgroup.Group
	g.SetLimit(*workers)
	for i := range n {
		g.Go(func() error {
			page := make([]byte, durablefs.PageSize)
			r := rand.New(rand.NewPCG(uint64(i), 0x5eed))
			for j := range page {
				page[j] = byte(r.Uint32())
			}
			sums[i] = xxh3.Hash(page)
			if res := fio.Write(fd, page, uint64(i)*durablefs.PageSize); !res.OK() {
				return fmt.Errorf("page %d: %w", i, res.Err())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	log("  Wrote %d pages with %d workers", n, *workers)

	rfd, res := fio.OpenForRead(file)
	if !res.OK() {
		return fmt.Errorf("open for read: %w", res.Err())
	}
	defer fio.Close(rfd)

	page := make([]byte, durablefs.PageSize)
	for i := range n {
		if _, res := fio.ReadFile(rfd, page, uint64(i)*durablefs.PageSize); !res.OK() {
			return fmt.Errorf("read page %d: %w", i, res.Err())
		}
		if got := xxh3.Hash(page); got != sums[i] {
			return fmt.Errorf("page %d checksum %016x, want %016x", i, got, sums[i])
		}
	}
	log("  Verified %d page checksums", n)
	return nil
}

// Test 7: a read running off the end reports EOF and a partial count
func testReadEOF(fio *durablefs.FileIO, path string) error {
	file := filepath.Join(path, "short.dat")
	f, fd, err := createFile(fio, file)
	if err != nil {
		return err
	}
	defer f.Close()

	data := []byte(strings.Repeat("x", 100))
	if res := fio.Write(fd, data, 0); !res.OK() {
		return res.Err()
	}
	n, res := fio.ReadFile(fd, make([]byte, 64), 60)
	if res.Status != durablefs.FailEOF {
		return fmt.Errorf("expected FAIL_EOF, got %v", res)
	}
	if n != 40 {
		return fmt.Errorf("read %d bytes, want 40", n)
	}
	return nil
}

// Test 8: EINVAL on a filesystem without directory sync is retried
func testWriteRetry(fio *durablefs.FileIO, path string) error {
	file := filepath.Join(path, "retry.dat")
	f, fd, err := createFile(fio, file)
	if err != nil {
		return err
	}
	defer f.Close()

	fs := vfs.NewFaultInjectionFS(vfs.Default())
	fs.SetSyncDirAllowed(false)
	fs.InjectErrno(vfs.OpPwrite, syscall.EINVAL)
	retrying := durablefs.New(&durablefs.Options{
		FS:         fs,
		Logger:     logger,
		WriteRetry: durablefs.RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Millisecond},
	})

	if res := retrying.Write(fd, []byte("retried"), 0); !res.OK() {
		return fmt.Errorf("write: %w", res.Err())
	}
	if calls := fs.Calls(vfs.OpPwrite); calls != 2 {
		return fmt.Errorf("pwrite called %d times, want 2", calls)
	}
	return nil
}

// Test 9: every created directory is synced before the call returns
func testDirSyncTrace(_ *durablefs.FileIO, path string) error {
	fs := vfs.NewFaultInjectionFS(vfs.Default())
	tracing := durablefs.New(&durablefs.Options{FS: fs, Logger: logger})

	if res := tracing.EnsurePathExists(filepath.Join(path, "a", "b")); !res.OK() {
		return res.Err()
	}
	if dirs := fs.UnsyncedDirs(); len(dirs) != 0 {
		return fmt.Errorf("unsynced directories after return: %v", dirs)
	}
	for _, event := range fs.Trace() {
		log("  %s", event)
	}
	return nil
}

func log(format string, args ...any) {
	if *verbose {
		logger.Infof(logging.NSSmoke+format, args...)
	}
}

func cleanupOldTestDirs() {
	tempDir := os.TempDir()
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		logger.Warnf(logging.NSSmoke+"could not read temp dir for cleanup: %v", err)
		return
	}

	var cleaned int
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), testDirPrefix) {
			continue
		}
		fullPath := filepath.Join(tempDir, entry.Name())
		if err := os.RemoveAll(fullPath); err != nil {
			logger.Warnf(logging.NSSmoke+"could not remove %s: %v", fullPath, err)
		} else {
			cleaned++
		}
	}
	if cleaned > 0 {
		fmt.Printf("🧹 Cleaned up %d old test directories\n", cleaned)
	}
}

func fatal(format string, args ...any) {
	fmt.Printf("FATAL: "+format+"\n", args...)
	os.Exit(1)
}
