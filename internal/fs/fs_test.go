package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")

	f, err := Default.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	require.NoError(t, Default.Truncate(path, 16))
	fi, err := Default.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(16), fi.Size())

	renamed := filepath.Join(dir, "b.bin")
	require.NoError(t, Default.Rename(path, renamed))
	require.NoError(t, Default.Remove(renamed))
	_, err = Default.Stat(renamed)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFSWriteLimit(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("y_", Fault{FailAfterBytes: 4})

	f, err := ffs.OpenFile(filepath.Join(dir, "y_train.dat"), os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = f.Write([]byte{5})
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFSOpenAndSync(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("MANIFEST", Fault{FailOnSync: true, FailAfterBytes: -1})
	ffs.AddRule("X_", Fault{FailOnOpen: true})

	_, err := ffs.OpenFile(filepath.Join(dir, "X_train.dat"), os.O_WRONLY|os.O_CREATE, 0o644)
	assert.ErrorIs(t, err, ErrInjected)

	f, err := ffs.OpenFile(filepath.Join(dir, "MANIFEST-000001.json.tmp"), os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("{}"))
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
}

func TestFaultyFSUnmatchedPassthrough(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("other", Fault{})

	f, err := ffs.OpenFile(filepath.Join(dir, "plain.txt"), os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("ok"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
