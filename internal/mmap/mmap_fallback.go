//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Buffered fallback handles must push writes to the file immediately.
const writeThrough = true

// Fallback for platforms without mmap: the file is read into a heap buffer.
// Reads are served from the buffer; writes go through pwrite immediately (see
// File.WriteAt), so independent handles writing disjoint rows still compose
// the same file contents as real shared mappings.
func osMap(f *os.File, size int, mode Mode) (data []byte, unmap, flush func([]byte) error, err error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(size)), buf); err != nil {
		return nil, nil, nil, err
	}
	return buf, nil, func([]byte) error { return f.Sync() }, nil
}

func osAdvise(_ []byte, _ AccessPattern) error {
	return nil
}
