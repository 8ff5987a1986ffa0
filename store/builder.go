package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/emberstore/extract"
	"github.com/hupe1980/emberstore/internal/mmap"
	"github.com/hupe1980/emberstore/layout"
	"github.com/hupe1980/emberstore/manifest"
	"github.com/hupe1980/emberstore/rawio"
	"github.com/hupe1980/emberstore/record"
)

// Builder vectorizes raw feature records into a new on-disk store.
type Builder struct {
	dir       string
	name      string
	extractor extract.Extractor
	opts      BuildOptions
}

// Result reports a completed build.
type Result struct {
	Rows   int
	Layout layout.Layout

	// FailedRows lists zero-filled sentinel rows (Sentinel policy only).
	FailedRows []int
}

// NewBuilder creates a builder that writes the store <name> into dir.
func NewBuilder(dir, name string, extractor extract.Extractor, optFns ...func(*BuildOptions)) (*Builder, error) {
	if extractor == nil {
		return nil, fmt.Errorf("store: extractor is required")
	}

	opts := DefaultBuildOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultBuildOptions().Workers
	}

	l := layout.Layout{
		FeatureWidth: extractor.Dim(),
		LabelWidth:   opts.LabelWidth,
		IDWidth:      opts.IDWidth,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	return &Builder{dir: dir, name: name, extractor: extractor, opts: opts}, nil
}

type job struct {
	row  int
	line []byte
}

// Build runs the two-phase build over the given raw inputs.
//
// On success the three array files and a committed manifest exist in the
// builder's directory. On any error (or cancellation) no manifest is left
// behind and the directory contents must be considered invalid.
func (b *Builder) Build(ctx context.Context, reader *rawio.Reader) (*Result, error) {
	log := b.opts.Logger
	manifests := manifest.NewStore(b.opts.FS, b.dir, b.opts.Codec)

	// A rebuild over an existing store starts by invalidating it, so an
	// aborted run cannot leave yesterday's manifest pointing at today's
	// half-written arrays.
	if err := manifests.Remove(); err != nil {
		return nil, err
	}

	// Phase 1: sizing. The count must exactly equal the number of records the
	// writing pass sees; nothing below re-validates indices against file
	// boundaries.
	start := time.Now()
	rows, err := reader.Count(ctx)
	if err != nil {
		return nil, err
	}

	l := layout.Layout{
		RowCount:     rows,
		FeatureWidth: b.extractor.Dim(),
		LabelWidth:   b.opts.LabelWidth,
		IDWidth:      b.opts.IDWidth,
	}
	log.Info("sizing pass complete",
		"store", b.name,
		"rows", rows,
		"feature_width", l.FeatureWidth,
		"label_width", l.LabelWidth,
		"duration", time.Since(start),
	)

	// Allocation is strictly sequential: all three files must exist at final
	// size before any worker maps them.
	paths := layout.StorePaths(b.dir, b.name)
	if err := b.allocate(paths, l); err != nil {
		return nil, err
	}

	failed, err := b.vectorize(ctx, reader, paths, l)
	if err != nil {
		return nil, err
	}

	sums, err := checksumFiles(paths)
	if err != nil {
		return nil, err
	}

	m := &manifest.Manifest{
		Store:        b.name,
		RowCount:     l.RowCount,
		FeatureWidth: l.FeatureWidth,
		LabelWidth:   l.LabelWidth,
		IDWidth:      l.IDWidth,
		Checksums:    sums,
		FailedRows:   failed,
	}
	if err := manifests.Save(m); err != nil {
		return nil, err
	}

	log.Info("build complete",
		"store", b.name,
		"rows", rows,
		"failed_rows", len(failed),
		"duration", time.Since(start),
	)

	return &Result{Rows: rows, Layout: l, FailedRows: failed}, nil
}

// allocate creates the three array files at their final size. Truncating a
// freshly created file zero-fills it, so unwritten sentinel rows read as zero.
func (b *Builder) allocate(paths layout.Paths, l layout.Layout) error {
	for _, target := range []struct {
		path string
		size int64
	}{
		{paths.Features, l.FeatureBytes()},
		{paths.Labels, l.LabelBytes()},
		{paths.IDs, l.IDBytes()},
	} {
		f, err := b.opts.FS.OpenFile(target.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		if err := b.opts.FS.Truncate(target.path, target.size); err != nil {
			return err
		}
	}
	b.opts.Logger.Info("allocation complete", "store", b.name, "bytes",
		l.FeatureBytes()+l.LabelBytes()+l.IDBytes())
	return nil
}

// vectorize is phase 2: one producer assigns sequential row indices, a fixed
// pool of workers extracts and writes rows through private mappings.
func (b *Builder) vectorize(ctx context.Context, reader *rawio.Reader, paths layout.Paths, l layout.Layout) ([]int, error) {
	if l.RowCount == 0 {
		return nil, nil
	}

	var (
		written    = roaring.New()
		writtenMu  sync.Mutex
		failedRows []int
		done       atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job, b.opts.Workers*2)

	g.Go(func() error {
		defer close(jobs)

		row := 0
		err := reader.Each(ctx, func(line []byte) error {
			if row >= l.RowCount {
				return ErrRowCountChanged
			}
			j := job{row: row, line: append([]byte(nil), line...)}
			row++
			select {
			case jobs <- j:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return err
		}
		if row != l.RowCount {
			return ErrRowCountChanged
		}
		return nil
	})

	for i := 0; i < b.opts.Workers; i++ {
		g.Go(func() error {
			w, err := newRowWriter(paths, l)
			if err != nil {
				return err
			}
			defer w.Close()

			for j := range jobs {
				sentinel, err := b.processRow(w, j)
				if err != nil {
					return err
				}

				writtenMu.Lock()
				written.Add(uint32(j.row))
				if sentinel {
					failedRows = append(failedRows, j.row)
				}
				writtenMu.Unlock()

				if b.opts.Progress != nil {
					b.opts.Progress(int(done.Add(1)), l.RowCount)
				} else {
					done.Add(1)
				}
			}
			return w.Close()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Bijection audit: every index in [0, N) written exactly once. Sequential
	// assignment rules out duplicates; the bitmap rules out gaps.
	if got := int(written.GetCardinality()); got != l.RowCount {
		return nil, fmt.Errorf("store: wrote %d of %d rows, build is incomplete", got, l.RowCount)
	}

	sort.Ints(failedRows)
	return failedRows, nil
}

// processRow parses, extracts and writes one record. The bool result reports
// a sentinel row (Sentinel policy only).
func (b *Builder) processRow(w *rowWriter, j job) (bool, error) {
	raw, err := record.Parse(b.opts.Codec, j.line)
	if err != nil {
		return b.failRow(w, j.row, "", err)
	}

	labels, err := raw.LabelRow(w.layout.LabelWidth)
	if err != nil {
		return b.failRow(w, j.row, raw.SHA256, err)
	}

	features, err := b.extractor.Extract(raw)
	if err != nil {
		return b.failRow(w, j.row, raw.SHA256, err)
	}
	if len(features) != w.layout.FeatureWidth {
		return b.failRow(w, j.row, raw.SHA256,
			fmt.Errorf("extractor returned %d features, layout wants %d", len(features), w.layout.FeatureWidth))
	}

	return false, w.WriteRow(j.row, raw.SHA256, features, labels)
}

// failRow applies the failure policy. Under Sentinel the row keeps its
// zero-filled feature and label data; the id slot records the sha when the
// envelope was parseable so the row stays attributable.
func (b *Builder) failRow(w *rowWriter, row int, sha string, cause error) (bool, error) {
	extractionErr := &ErrExtraction{Row: row, SHA: sha, cause: cause}
	if b.opts.Policy == FailFast {
		return false, extractionErr
	}

	b.opts.Logger.Warn("record failed, writing sentinel row",
		"row", row,
		"sha256", sha,
		"error", cause,
	)
	if sha != "" {
		if err := w.WriteID(row, sha); err != nil {
			return false, err
		}
	}
	return true, nil
}

// rowWriter owns one worker's private mappings of the three array files.
// Mappings are never shared across workers; disjoint row offsets make the
// writes race-free without locks.
type rowWriter struct {
	layout   layout.Layout
	features *mmap.File
	labels   *mmap.File
	ids      *mmap.File

	featBuf  []byte
	labelBuf []byte
	idBuf    []byte
}

func newRowWriter(paths layout.Paths, l layout.Layout) (*rowWriter, error) {
	w := &rowWriter{
		layout:   l,
		featBuf:  make([]byte, l.FeatureRowBytes()),
		labelBuf: make([]byte, l.LabelRowBytes()),
		idBuf:    make([]byte, l.IDRowBytes()),
	}

	var err error
	if w.features, err = mmap.Open(paths.Features, mmap.ReadWrite); err != nil {
		return nil, err
	}
	if w.labels, err = mmap.Open(paths.Labels, mmap.ReadWrite); err != nil {
		w.Close()
		return nil, err
	}
	if w.ids, err = mmap.Open(paths.IDs, mmap.ReadWrite); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *rowWriter) WriteRow(row int, id string, features, labels []float32) error {
	layout.PutFloats(w.featBuf, features)
	if _, err := w.features.WriteAt(w.featBuf, w.layout.FeatureOffset(row)); err != nil {
		return err
	}

	layout.PutFloats(w.labelBuf, labels)
	if _, err := w.labels.WriteAt(w.labelBuf, w.layout.LabelOffset(row)); err != nil {
		return err
	}

	return w.WriteID(row, id)
}

func (w *rowWriter) WriteID(row int, id string) error {
	layout.PutID(w.idBuf, id, w.layout.IDWidth)
	_, err := w.ids.WriteAt(w.idBuf, w.layout.IDOffset(row))
	return err
}

// Close flushes and unmaps. Safe to call multiple times.
func (w *rowWriter) Close() error {
	var firstErr error
	for _, m := range []*mmap.File{w.features, w.labels, w.ids} {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func baseName(path string) string {
	return filepath.Base(path)
}

func checksumFiles(paths layout.Paths) (map[string]uint32, error) {
	sums := make(map[string]uint32, 3)
	for _, path := range []string{paths.Features, paths.Labels, paths.IDs} {
		m, err := mmap.Open(path, mmap.ReadOnly)
		if err != nil {
			return nil, err
		}
		sums[baseName(path)] = manifest.CRC32(m.Bytes())
		if err := m.Close(); err != nil {
			return nil, err
		}
	}
	return sums, nil
}
