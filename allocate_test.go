package durablefs

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalhour/durablefs/vfs"
)

func TestAllocate_Fallocate(t *testing.T) {
	tf := newTestFile(t)

	res := tf.fio.Allocate(tf.fd, 4*PageSize)

	require.True(t, res.OK(), res.String())
	assert.EqualValues(t, 4*PageSize, tf.size(t))
	assert.Equal(t, 1, tf.fs.Calls(vfs.OpFallocate))
}

func TestAllocate_FallbackWritesLastByte(t *testing.T) {
	tf := newTestFile(t)
	tf.fs.SetFallocateUnsupported(true)

	res := tf.fio.Allocate(tf.fd, 8192)

	require.True(t, res.OK(), res.String())
	data := tf.contents(t)
	require.Len(t, data, 8192)
	assert.Zero(t, data[8191])
	assert.Equal(t, 1, tf.fs.Calls(vfs.OpPwrite), "fallback must write exactly once")
}

func TestAllocate_FallbackKeepsExistingData(t *testing.T) {
	tf := newTestFile(t)
	require.True(t, tf.fio.Write(tf.fd, []byte("header"), 0).OK())
	tf.fs.SetFallocateUnsupported(true)

	require.True(t, tf.fio.Allocate(tf.fd, 2*PageSize).OK())

	data := tf.contents(t)
	require.Len(t, data, 2*PageSize)
	assert.Equal(t, []byte("header"), data[:6])
}

func TestAllocate_UnsupportedErrnosFallBack(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.EBADF, syscall.EINVAL, syscall.EFBIG, syscall.EOPNOTSUPP} {
		t.Run(errno.Error(), func(t *testing.T) {
			tf := newTestFile(t)
			tf.fs.InjectErrno(vfs.OpFallocate, errno)

			res := tf.fio.Allocate(tf.fd, PageSize)

			require.True(t, res.OK(), res.String())
			assert.EqualValues(t, PageSize, tf.size(t))
			assert.Equal(t, 1, tf.fs.Calls(vfs.OpFallocate))
		})
	}
}

func TestAllocate_FallbackWriteFailure(t *testing.T) {
	tf := newTestFile(t)
	tf.fs.SetFallocateUnsupported(true)
	tf.fs.InjectErrno(vfs.OpPwrite, syscall.ENOSPC)

	res := tf.fio.Allocate(tf.fd, PageSize)

	assert.Equal(t, FailPwrite, res.Status)
	assert.Equal(t, syscall.ENOSPC, res.Errno)
}

func TestAllocate_InterruptedThenSucceeds(t *testing.T) {
	tf := newTestFile(t)
	tf.fs.InjectErrno(vfs.OpFallocate, syscall.EINTR, syscall.EINTR, syscall.EINTR, syscall.EINTR)

	res := tf.fio.Allocate(tf.fd, PageSize)

	require.True(t, res.OK(), res.String())
	assert.Equal(t, 5, tf.fs.Calls(vfs.OpFallocate))
	assert.EqualValues(t, PageSize, tf.size(t))
}

func TestAllocate_InterruptedForever(t *testing.T) {
	tf := newTestFile(t)
	fio := New(&Options{FS: tf.fs, AllocRetry: RetryPolicy{MaxAttempts: 4}})
	for i := 0; i < 10; i++ {
		tf.fs.InjectErrno(vfs.OpFallocate, syscall.EINTR)
	}

	res := fio.Allocate(tf.fd, PageSize)

	assert.Equal(t, FailAllocFile, res.Status)
	assert.Equal(t, syscall.EINTR, res.Errno)
	assert.Equal(t, 4, tf.fs.Calls(vfs.OpFallocate))
	assert.Zero(t, tf.fs.Calls(vfs.OpPwrite))
}

func TestAllocate_OtherErrorFails(t *testing.T) {
	tf := newTestFile(t)
	tf.fs.InjectErrno(vfs.OpFallocate, syscall.ENOSPC)

	res := tf.fio.Allocate(tf.fd, PageSize)

	assert.Equal(t, FailAllocFile, res.Status)
	assert.Equal(t, syscall.ENOSPC, res.Errno)
	assert.Equal(t, 1, tf.fs.Calls(vfs.OpFallocate))
	assert.Zero(t, tf.fs.Calls(vfs.OpPwrite))
}

func TestAllocate_ZeroSize(t *testing.T) {
	tf := newTestFile(t)

	res := tf.fio.Allocate(tf.fd, 0)

	assert.True(t, res.OK())
	assert.Zero(t, tf.fs.Calls(vfs.OpFallocate))
	assert.Zero(t, tf.size(t))
}
