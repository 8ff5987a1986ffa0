// Package rawio streams raw per-sample feature records from disk.
//
// Raw inputs are text files with one JSON object per line, optionally
// compressed (gzip or zstd, selected by file extension). The reader yields
// lines in file order, then in-file order, holding at most one file open at a
// time. It is restartable per call but not resumable mid-stream: every
// iteration starts again from the first file, which is what keeps the counting
// pass and the writing pass of a build assigning identical row indices.
package rawio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// MaxLineBytes is the largest raw record line the reader accepts. Raw EMBER
// feature objects for large PE files run into the megabytes.
const MaxLineBytes = 64 << 20

// ErrRecordSource indicates a missing or unreadable input file. It is fatal
// to the whole build: retrying or skipping a source would desynchronize row
// indices between the counting and writing passes.
type ErrRecordSource struct {
	Path  string
	cause error
}

func (e *ErrRecordSource) Error() string {
	return fmt.Sprintf("record source %s: %v", e.Path, e.cause)
}

func (e *ErrRecordSource) Unwrap() error { return e.cause }

// Reader streams lines from an ordered list of raw feature files.
type Reader struct {
	paths []string
}

// NewReader creates a Reader over the given files. Order is preserved.
func NewReader(paths ...string) *Reader {
	return &Reader{paths: append([]string(nil), paths...)}
}

// Paths returns the configured input files in iteration order.
func (r *Reader) Paths() []string {
	return append([]string(nil), r.paths...)
}

// Each calls fn for every line across all files, in order. The line slice is
// only valid for the duration of the call. Iteration stops at the first error
// from fn, a source error, or context cancellation.
func (r *Reader) Each(ctx context.Context, fn func(line []byte) error) error {
	for _, path := range r.paths {
		if err := r.eachInFile(ctx, path, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count streams all files once and returns the total number of lines. This is
// the sizing pass of a build: the result must equal the number of records the
// writing pass will observe.
func (r *Reader) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.Each(ctx, func([]byte) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Reader) eachInFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &ErrRecordSource{Path: path, cause: err}
	}
	defer f.Close()

	var src io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return &ErrRecordSource{Path: path, cause: err}
		}
		defer zr.Close()
		src = zr
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return &ErrRecordSource{Path: path, cause: err}
		}
		defer zr.Close()
		src = zr
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 1<<20), MaxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return &ErrRecordSource{Path: path, cause: err}
	}
	return nil
}

// ListRawFiles returns the raw feature files directly inside dir, sorted by
// name. A file qualifies if its name (before any .gz/.zst suffix) ends in
// .json or .jsonl.
func ListRawFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ErrRecordSource{Path: dir, cause: err}
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		base := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zst"), ".zstd")
		ext := strings.ToLower(filepath.Ext(base))
		if ext == ".json" || ext == ".jsonl" {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
