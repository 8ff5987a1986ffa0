package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/emberstore/internal/mmap"
)

// LocalStore implements BlobStore over a local directory tree.
// Blobs are memory-mapped, so ranged reads are zero-copy.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, name), mmap.ReadOnly)
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// List walks the root and returns relative paths under prefix, sorted.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.File
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Len())
}

func (b *localBlob) Reader(ctx context.Context) (io.ReadCloser, error) {
	return b.ReadRange(ctx, 0, b.Size())
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	if off < 0 || off > int64(len(data)) {
		return nil, io.EOF
	}
	end := off + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}
