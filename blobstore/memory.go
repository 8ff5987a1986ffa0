package blobstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory BlobStore for tests.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Put stores a blob under name, replacing any previous content.
func (m *MemoryStore) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[name] = copied
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return &memoryBlob{data: copied}, nil
}

// List returns the blob names under prefix, sorted.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

type memoryBlob struct {
	data []byte
}

func (b *memoryBlob) Size() int64 {
	return int64(len(b.data))
}

func (b *memoryBlob) Reader(ctx context.Context) (io.ReadCloser, error) {
	return b.ReadRange(ctx, 0, int64(len(b.data)))
}

func (b *memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off > int64(len(b.data)) {
		return nil, io.EOF
	}
	end := off + length
	if end > int64(len(b.data)) {
		end = int64(len(b.data))
	}
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}

func (b *memoryBlob) Close() error {
	return nil
}
