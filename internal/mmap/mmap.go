// Package mmap provides memory-mapped file access for the feature store arrays.
//
// Readers map the array files read-only; builder workers map them read-write
// (MAP_SHARED), so disjoint-offset writes from independent mappings land in the
// same file without any in-process coordination.
//
// On platforms without mmap support the package falls back to plain file I/O
// with the same API; writable fallback handles use pwrite, so the disjoint-row
// guarantee is preserved.
package mmap

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Mode selects the protection of a mapping.
type Mode int

const (
	// ReadOnly maps the file with read protection only.
	ReadOnly Mode = iota
	// ReadWrite maps the file shared with read/write protection.
	ReadWrite
)

// AccessPattern provides hints to the kernel about how the data will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects data to be accessed sequentially.
	AccessSequential
	// AccessRandom expects data to be accessed randomly.
	AccessRandom
)

var (
	// ErrClosed is returned when accessing a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrReadOnly is returned when writing through a read-only mapping.
	ErrReadOnly = errors.New("mmap: mapping is read-only")
)

// File is a memory-mapped file.
type File struct {
	data   []byte
	f      *os.File
	mode   Mode
	unmap  func([]byte) error
	flush  func([]byte) error
	closed bool
}

// Open maps the file at path with the given mode. The whole file is mapped.
func Open(path string, mode Mode) (*File, error) {
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size < 0 {
		f.Close()
		return nil, fmt.Errorf("mmap: negative file size for %s", path)
	}
	if size == 0 {
		return &File{data: nil, f: f, mode: mode}, nil
	}

	data, unmap, flush, err := osMap(f, int(size), mode)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{data: data, f: f, mode: mode, unmap: unmap, flush: flush}, nil
}

// Bytes returns the mapped contents. The slice is valid until Close.
// Callers must not write through the slice of a ReadOnly mapping.
func (m *File) Bytes() []byte {
	return m.data
}

// Len returns the mapped size in bytes.
func (m *File) Len() int {
	return len(m.data)
}

// ReadAt implements io.ReaderAt over the mapping.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt copies p into the mapping at off. The mapping must be ReadWrite and
// the range must lie fully inside the file; the mapping never grows.
func (m *File) WriteAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if m.mode != ReadWrite {
		return 0, ErrReadOnly
	}
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, fmt.Errorf("mmap: write [%d, %d) outside mapping of %d bytes", off, off+int64(len(p)), len(m.data))
	}
	n := copy(m.data[off:], p)
	if writeThrough {
		if _, err := m.f.WriteAt(p, off); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Flush synchronously writes modified pages back to the file.
func (m *File) Flush() error {
	if m.closed {
		return ErrClosed
	}
	if m.mode != ReadWrite || m.flush == nil {
		return nil
	}
	return m.flush(m.data)
}

// Advise hints the kernel about the expected access pattern. Advisory only.
func (m *File) Advise(pattern AccessPattern) error {
	if m.closed || len(m.data) == 0 {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// Close flushes (for writable mappings), unmaps and closes the file.
// It is safe to call multiple times.
func (m *File) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.data != nil {
		if m.mode == ReadWrite && m.flush != nil {
			err = m.flush(m.data)
		}
		if m.unmap != nil {
			if unmapErr := m.unmap(m.data); unmapErr != nil && err == nil {
				err = unmapErr
			}
		}
		m.data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}
