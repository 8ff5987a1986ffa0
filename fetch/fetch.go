// Package fetch mirrors raw sample corpora from a blob store into a local
// directory, ready for feature extraction.
//
// Downloads run concurrently with an optional request rate cap. Files that
// already exist locally with the expected size are skipped, so an
// interrupted mirror can be resumed. Each file lands via a temporary name
// and rename, partial downloads are never visible under the final name.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/emberstore/blobstore"
)

// ErrFetch wraps a per-object download failure.
type ErrFetch struct {
	Name  string
	cause error
}

func (e *ErrFetch) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Name, e.cause)
}

func (e *ErrFetch) Unwrap() error { return e.cause }

// Options configures a Fetcher.
type Options struct {
	// Concurrency is the number of parallel downloads.
	Concurrency int
	// RequestsPerSecond caps download starts. Zero means unlimited.
	RequestsPerSecond float64
	// Overwrite re-downloads files that already exist locally.
	Overwrite bool
	// Logger receives per-file progress. Defaults to a discarding logger.
	Logger *slog.Logger
	// Progress, when set, is called after every finished object.
	Progress func(done, total int)
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Concurrency: runtime.GOMAXPROCS(0),
		Logger:      slog.New(slog.DiscardHandler),
	}
}

// Result summarizes a completed mirror run.
type Result struct {
	Downloaded int
	Skipped    int
	Bytes      int64
}

// Fetcher mirrors blobs from a store into a local directory.
type Fetcher struct {
	src     blobstore.BlobStore
	destDir string
	opts    Options
}

// New creates a Fetcher writing into destDir.
func New(src blobstore.BlobStore, destDir string, optFns ...func(*Options)) *Fetcher {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Fetcher{src: src, destDir: destDir, opts: opts}
}

// Fetch mirrors every blob under prefix. The first failing object aborts
// the run and is returned as an *ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, prefix string) (*Result, error) {
	names, err := f.src.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	f.opts.Logger.Info("mirror start",
		slog.String("prefix", prefix),
		slog.Int("objects", len(names)),
		slog.Int("concurrency", f.opts.Concurrency))

	var limiter *rate.Limiter
	if f.opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(f.opts.RequestsPerSecond), 1)
	}

	var downloaded, skipped, done atomic.Int64
	var bytes atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for _, name := range names {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
			}

			n, err := f.fetchOne(ctx, name)
			if err != nil {
				return &ErrFetch{Name: name, cause: err}
			}

			if n < 0 {
				skipped.Add(1)
			} else {
				downloaded.Add(1)
				bytes.Add(n)
			}

			if f.opts.Progress != nil {
				f.opts.Progress(int(done.Add(1)), len(names))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Bytes:      bytes.Load(),
	}

	f.opts.Logger.Info("mirror done",
		slog.Int("downloaded", res.Downloaded),
		slog.Int("skipped", res.Skipped),
		slog.Int64("bytes", res.Bytes))

	return res, nil
}

// fetchOne downloads a single blob. Returns -1 when the local copy was
// already current.
func (f *Fetcher) fetchOne(ctx context.Context, name string) (int64, error) {
	blob, err := f.src.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer blob.Close()

	dest := filepath.Join(f.destDir, filepath.FromSlash(name))

	if !f.opts.Overwrite {
		if info, err := os.Stat(dest); err == nil && info.Size() == blob.Size() {
			f.opts.Logger.Debug("up to date", slog.String("name", name))
			return -1, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	r, err := blob.Reader(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp*")
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	if n != blob.Size() {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("short download: got %d bytes, want %d", n, blob.Size())
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	f.opts.Logger.Debug("downloaded", slog.String("name", name), slog.Int64("bytes", n))
	return n, nil
}
