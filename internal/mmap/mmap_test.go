package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenReadOnly(t *testing.T) {
	path := writeTempFile(t, []byte("hello, mmap"))

	m, err := Open(path, ReadOnly)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []byte("hello, mmap"), m.Bytes())
	assert.Equal(t, 11, m.Len())

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("mmap"), buf[:n])

	_, err = m.WriteAt([]byte("x"), 0)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestOpenEmptyFile(t *testing.T) {
	path := writeTempFile(t, nil)

	m, err := Open(path, ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"), ReadOnly)
	assert.Error(t, err)
}

func TestWriteAt(t *testing.T) {
	path := writeTempFile(t, make([]byte, 16))

	m, err := Open(path, ReadWrite)
	require.NoError(t, err)

	n, err := m.WriteAt([]byte{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, m.Flush())
	require.NoError(t, m.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0}, got)
}

func TestWriteAtOutOfBounds(t *testing.T) {
	path := writeTempFile(t, make([]byte, 8))

	m, err := Open(path, ReadWrite)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.WriteAt([]byte{1, 2}, 7)
	assert.Error(t, err)
	_, err = m.WriteAt([]byte{1}, -1)
	assert.Error(t, err)
}

func TestIndependentMappingsSameFile(t *testing.T) {
	path := writeTempFile(t, make([]byte, 8))

	a, err := Open(path, ReadWrite)
	require.NoError(t, err)
	b, err := Open(path, ReadWrite)
	require.NoError(t, err)

	_, err = a.WriteAt([]byte{0xAA, 0xAA, 0xAA, 0xAA}, 0)
	require.NoError(t, err)
	_, err = b.WriteAt([]byte{0xBB, 0xBB, 0xBB, 0xBB}, 4)
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xBB, 0xBB, 0xBB, 0xBB}, got)
}

func TestCloseIdempotent(t *testing.T) {
	path := writeTempFile(t, []byte{1, 2, 3})

	m, err := Open(path, ReadOnly)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAdvise(t *testing.T) {
	path := writeTempFile(t, make([]byte, 4096))

	m, err := Open(path, ReadOnly)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Advise(AccessSequential))
}
