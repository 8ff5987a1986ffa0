package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore is read-only access to a collection of immutable named blobs.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// List returns the blob names under prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a named blob.
type Blob interface {
	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64

	// Reader streams the whole blob from the start.
	Reader(ctx context.Context) (io.ReadCloser, error)

	// ReadRange streams length bytes starting at off. A range past the end
	// is truncated to the blob size.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}
