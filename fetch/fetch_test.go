package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/emberstore/blobstore"
)

func seedStore(n int) *blobstore.MemoryStore {
	src := blobstore.NewMemoryStore()
	for i := 0; i < n; i++ {
		src.Put(fmt.Sprintf("raw/part_%02d.jsonl", i), []byte(fmt.Sprintf("payload-%d", i)))
	}
	return src
}

func TestFetchMirrorsAll(t *testing.T) {
	src := seedStore(5)
	dest := t.TempDir()

	f := New(src, dest, func(o *Options) { o.Concurrency = 3 })
	res, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Downloaded)
	assert.Equal(t, 0, res.Skipped)

	for i := 0; i < 5; i++ {
		data, err := os.ReadFile(filepath.Join(dest, "raw", fmt.Sprintf("part_%02d.jsonl", i)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("payload-%d", i), string(data))
	}
}

func TestFetchSkipsUpToDate(t *testing.T) {
	src := seedStore(4)
	dest := t.TempDir()

	f := New(src, dest)
	_, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)

	res, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Downloaded)
	assert.Equal(t, 4, res.Skipped)
}

func TestFetchResumesPartialMirror(t *testing.T) {
	src := seedStore(3)
	dest := t.TempDir()

	// A size mismatch marks the local copy stale.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "raw"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "raw", "part_00.jsonl"), []byte("torn"), 0o644))

	f := New(src, dest)
	res, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Downloaded)

	data, err := os.ReadFile(filepath.Join(dest, "raw", "part_00.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "payload-0", string(data))
}

func TestFetchOverwrite(t *testing.T) {
	src := seedStore(2)
	dest := t.TempDir()

	f := New(src, dest)
	_, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)

	f = New(src, dest, func(o *Options) { o.Overwrite = true })
	res, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Downloaded)
}

func TestFetchProgress(t *testing.T) {
	src := seedStore(6)
	dest := t.TempDir()

	var mu sync.Mutex
	var dones []int
	f := New(src, dest, func(o *Options) {
		o.Concurrency = 2
		o.Progress = func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 6, total)
			dones = append(dones, done)
		}
	})

	_, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)
	assert.Len(t, dones, 6)
	assert.Contains(t, dones, 6)
}

func TestFetchEmptyPrefix(t *testing.T) {
	src := seedStore(3)
	dest := t.TempDir()

	f := New(src, dest)
	res, err := f.Fetch(context.Background(), "nothing/")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Downloaded)
	assert.Equal(t, 0, res.Skipped)
}

func TestFetchCancelled(t *testing.T) {
	src := seedStore(10)
	dest := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A rate limiter forces a Wait, which observes the cancelled context.
	f := New(src, dest, func(o *Options) { o.RequestsPerSecond = 1 })
	_, err := f.Fetch(ctx, "raw/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchWrapsObjectErrors(t *testing.T) {
	src := seedStore(1)
	dest := t.TempDir()

	// Destination path blocked by a directory of the same name.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "raw", "part_00.jsonl"), 0o755))

	f := New(src, dest)
	_, err := f.Fetch(context.Background(), "raw/")
	require.Error(t, err)

	var fe *ErrFetch
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "raw/part_00.jsonl", fe.Name)
}

func TestFetchNoPartialFilesVisible(t *testing.T) {
	src := seedStore(4)
	dest := t.TempDir()

	f := New(src, dest)
	_, err := f.Fetch(context.Background(), "raw/")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dest, "raw"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
