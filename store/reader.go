package store

import (
	"fmt"

	"github.com/hupe1980/emberstore/internal/mmap"
	"github.com/hupe1980/emberstore/layout"
	"github.com/hupe1980/emberstore/manifest"
)

// Row is one sample's slice across the three arrays.
type Row struct {
	Index    int
	ID       string
	Features []float32
	Labels   []float32
}

// Reader serves random-access rows from a built store. It performs no writes
// and any number of Readers may operate on the same store concurrently.
type Reader struct {
	layout   layout.Layout
	features *mmap.File
	labels   *mmap.File
	ids      *mmap.File

	// FailedRows, when the store's manifest lists sentinel rows, identifies
	// rows whose feature and label data is zero-filled.
	FailedRows []int
}

// Open opens the store <name> in dir for reading.
//
// By default the layout comes from the store's manifest; opening a directory
// without one fails with *manifest.ErrNoManifest. Legacy stores without a
// manifest are opened by supplying the layout explicitly (RowCount 0 infers N
// from the identifier file size).
func Open(dir, name string, optFns ...func(*OpenOptions)) (*Reader, error) {
	opts := DefaultOpenOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		l    layout.Layout
		m    *manifest.Manifest
		err  error
		sums map[string]uint32
	)

	if opts.Layout != nil {
		l = *opts.Layout
	} else {
		m, err = manifest.NewStore(opts.FS, dir, opts.Codec).Load()
		if err != nil {
			return nil, err
		}
		if m.Store != name {
			return nil, fmt.Errorf("store: manifest in %s describes store %q, not %q", dir, m.Store, name)
		}
		l = m.Layout()
		sums = m.Checksums
	}

	paths := layout.StorePaths(dir, name)

	r := &Reader{}
	if r.ids, err = mmap.Open(paths.IDs, mmap.ReadOnly); err != nil {
		return nil, err
	}
	if r.features, err = mmap.Open(paths.Features, mmap.ReadOnly); err != nil {
		r.Close()
		return nil, err
	}
	if r.labels, err = mmap.Open(paths.Labels, mmap.ReadOnly); err != nil {
		r.Close()
		return nil, err
	}

	if l.RowCount == 0 && r.ids.Len() > 0 {
		if l, err = l.WithInferredRows(int64(r.ids.Len())); err != nil {
			r.Close()
			return nil, err
		}
	}
	if err := l.Validate(); err != nil {
		r.Close()
		return nil, err
	}
	if err := l.CheckSizes(int64(r.features.Len()), int64(r.labels.Len()), int64(r.ids.Len())); err != nil {
		r.Close()
		return nil, err
	}
	r.layout = l

	if m != nil {
		r.FailedRows = m.FailedRows
	}

	if opts.VerifyChecksums && sums != nil {
		if err := r.verifyChecksums(paths, sums); err != nil {
			r.Close()
			return nil, err
		}
	}

	// Consumers access rows in shuffled order during training.
	_ = r.features.Advise(mmap.AccessRandom)
	_ = r.labels.Advise(mmap.AccessRandom)
	_ = r.ids.Advise(mmap.AccessRandom)

	return r, nil
}

// Len returns the number of rows N.
func (r *Reader) Len() int {
	return r.layout.RowCount
}

// Layout returns the layout the store was opened with.
func (r *Reader) Layout() layout.Layout {
	return r.layout
}

// Row returns the identifier, feature vector and label vector at index i.
// The returned slices are copies and remain valid after Close.
func (r *Reader) Row(i int) (Row, error) {
	if i < 0 || i >= r.layout.RowCount {
		return Row{}, &ErrIndexOutOfRange{Index: i, Len: r.layout.RowCount}
	}

	featOff := r.layout.FeatureOffset(i)
	labelOff := r.layout.LabelOffset(i)
	idOff := r.layout.IDOffset(i)

	return Row{
		Index:    i,
		ID:       layout.ID(r.ids.Bytes()[idOff:idOff+r.layout.IDRowBytes()], r.layout.IDWidth),
		Features: layout.Floats(r.features.Bytes()[featOff:featOff+r.layout.FeatureRowBytes()], nil),
		Labels:   layout.Floats(r.labels.Bytes()[labelOff:labelOff+r.layout.LabelRowBytes()], nil),
	}, nil
}

// Close unmaps the arrays. Rows returned earlier stay valid.
func (r *Reader) Close() error {
	var firstErr error
	for _, m := range []*mmap.File{r.features, r.labels, r.ids} {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Reader) verifyChecksums(paths layout.Paths, sums map[string]uint32) error {
	for file, data := range map[string][]byte{
		baseName(paths.Features): r.features.Bytes(),
		baseName(paths.Labels):   r.labels.Bytes(),
		baseName(paths.IDs):      r.ids.Bytes(),
	} {
		want, ok := sums[file]
		if !ok {
			continue
		}
		if got := manifest.CRC32(data); got != want {
			return &ErrChecksum{File: file, Expected: want, Actual: got}
		}
	}
	return nil
}
