package durablefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	fio := New(nil)

	assert.NotNil(t, fio.fs)
	assert.NotNil(t, fio.logger)
	assert.Equal(t, DefaultWriteRetry, fio.writeRetry)
	assert.Equal(t, DefaultAllocRetry, fio.allocRetry)
	assert.EqualValues(t, DefaultDirPerm, fio.dirPerm)
}

func TestNew_ZeroOptions(t *testing.T) {
	fio := New(&Options{})

	assert.Equal(t, DefaultWriteRetry, fio.writeRetry)
	assert.Equal(t, DefaultAllocRetry, fio.allocRetry)
	assert.EqualValues(t, DefaultDirPerm, fio.dirPerm)
}

func TestRetryPolicy_Sanitize(t *testing.T) {
	tests := []struct {
		name string
		in   RetryPolicy
		want RetryPolicy
	}{
		{"zero uses default", RetryPolicy{}, DefaultWriteRetry},
		{"negative attempts clamp to one", RetryPolicy{MaxAttempts: -5}, RetryPolicy{MaxAttempts: 1}},
		{"delay only", RetryPolicy{Delay: 5}, RetryPolicy{MaxAttempts: 1, Delay: 5}},
		{"negative delay", RetryPolicy{MaxAttempts: 2, Delay: -1}, RetryPolicy{MaxAttempts: 2}},
		{"kept", RetryPolicy{MaxAttempts: 7, Delay: 9}, RetryPolicy{MaxAttempts: 7, Delay: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.sanitize(DefaultWriteRetry))
		})
	}
}

// The package-level functions run on the real filesystem end to end.
func TestPackageLevelFunctions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "tables")

	res := EnsurePathExists(dir)
	require.True(t, res.OK(), res.String())

	path := filepath.Join(dir, "000001.tbl")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	require.NoError(t, err)
	defer f.Close()
	fd := HandleOf(f)

	require.True(t, ResizeFile(fd, 2*PageSize).OK())
	page := pattern(PageSize, 42)
	require.True(t, Write(fd, page, PageSize).OK())
	require.True(t, Allocate(fd, 4*PageSize).OK())
	require.True(t, ResizeFile(fd, 2*PageSize).OK())

	rfd, res := OpenForRead(path)
	require.True(t, res.OK(), res.String())
	defer std.Close(rfd)

	buf := make([]byte, PageSize)
	n, res := ReadFile(rfd, buf, PageSize)
	require.True(t, res.OK(), res.String())
	assert.EqualValues(t, PageSize, n)
	assert.Equal(t, page, buf)

	_, res = ReadFile(rfd, buf, 2*PageSize)
	assert.Equal(t, FailEOF, res.Status)
}
