//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// Real shared mappings write back through the page cache.
const writeThrough = false

func osMap(f *os.File, size int, mode Mode) (data []byte, unmap, flush func([]byte) error, err error) {
	prot := unix.PROT_READ
	if mode == ReadWrite {
		prot |= unix.PROT_WRITE
	}

	data, err = unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, nil, err
	}

	return data, unix.Munmap, func(b []byte) error {
		return unix.Msync(b, unix.MS_SYNC)
	}, nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	var advice int
	switch pattern {
	case AccessSequential:
		advice = unix.MADV_SEQUENTIAL
	case AccessRandom:
		advice = unix.MADV_RANDOM
	default:
		advice = unix.MADV_NORMAL
	}

	// Madvise needs page-aligned addresses on Linux. The hint is advisory,
	// so an alignment EINVAL is not worth surfacing.
	err := unix.Madvise(data, advice)
	if err == unix.EINVAL {
		return nil
	}
	return err
}
