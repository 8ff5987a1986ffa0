package rawio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func collect(t *testing.T, r *Reader) []string {
	t.Helper()
	var got []string
	err := r.Each(context.Background(), func(line []byte) error {
		got = append(got, string(line))
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestEachFileOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	writeLines(t, a, `{"i":0}`, `{"i":1}`)
	writeLines(t, b, `{"i":2}`)

	got := collect(t, NewReader(a, b))
	assert.Equal(t, []string{`{"i":0}`, `{"i":1}`, `{"i":2}`}, got)

	// Restartable: a second pass yields the same sequence.
	assert.Equal(t, got, collect(t, NewReader(a, b)))
}

func TestCountMatchesEach(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	writeLines(t, a, "1", "2", "", "4") // empty lines count too

	r := NewReader(a)
	n, err := r.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, collect(t, r), 4)
}

func TestMissingFileIsSourceError(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "missing.json"))

	err := r.Each(context.Background(), func([]byte) error { return nil })
	var srcErr *ErrRecordSource
	require.ErrorAs(t, err, &srcErr)
	assert.True(t, os.IsNotExist(errors.Unwrap(srcErr)))

	_, err = r.Count(context.Background())
	assert.ErrorAs(t, err, &srcErr)
}

func TestCallbackErrorStopsIteration(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	writeLines(t, a, "1", "2", "3")

	sentinel := errors.New("boom")
	seen := 0
	err := NewReader(a).Each(context.Background(), func([]byte) error {
		seen++
		if seen == 2 {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, seen)
}

func TestContextCancellation(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	writeLines(t, a, "1", "2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewReader(a).Each(ctx, func([]byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGzipAndZstd(t *testing.T) {
	dir := t.TempDir()

	gzPath := filepath.Join(dir, "a.json.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("g1\ng2\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	zstPath := filepath.Join(dir, "b.json.zst")
	f, err = os.Create(zstPath)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = enc.Write([]byte("z1\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	got := collect(t, NewReader(gzPath, zstPath))
	assert.Equal(t, []string{"g1", "g2", "z1"}, got)
}

func TestListRawFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "c.jsonl.gz", "d.txt", "e.json.zst"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	got, err := ListRawFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.jsonl.gz"),
		filepath.Join(dir, "e.json.zst"),
	}, got)
}
