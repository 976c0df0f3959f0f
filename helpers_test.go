package durablefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aalhour/durablefs/vfs"
)

// testFile is a file in a fresh temp dir driven through a fault-injecting FS.
type testFile struct {
	fs   *vfs.FaultInjectionFS
	fio  *FileIO
	fd   FileHandle
	path string
}

// newTestFile creates an empty file and a FileIO whose write retries wait
// only a millisecond.
func newTestFile(t *testing.T) *testFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	fs := vfs.NewFaultInjectionFS(vfs.Default())
	fio := New(&Options{
		FS:         fs,
		WriteRetry: RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
	})
	return &testFile{fs: fs, fio: fio, fd: HandleOf(f), path: path}
}

func (tf *testFile) contents(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(tf.path)
	require.NoError(t, err)
	return data
}

func (tf *testFile) size(t *testing.T) int64 {
	t.Helper()
	info, err := os.Stat(tf.path)
	require.NoError(t, err)
	return info.Size()
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i%251)
	}
	return b
}
