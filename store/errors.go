package store

import (
	"errors"
	"fmt"
)

// ErrRowCountChanged is returned when the writing pass observes a different
// number of records than the sizing pass. The two passes stream the same
// files; a mismatch means the inputs changed mid-build and the row-index
// assignment can no longer be trusted.
var ErrRowCountChanged = errors.New("store: input row count changed between sizing and writing pass")

// ErrExtraction indicates that one record could not be parsed or vectorized.
// Under the fail-fast policy it aborts the whole build: skipping would leave
// a row indistinguishable from legitimately-zero data.
//
// The underlying cause is available via errors.Unwrap.
type ErrExtraction struct {
	Row   int
	SHA   string // empty when the record envelope itself was unparseable
	cause error
}

func (e *ErrExtraction) Error() string {
	if e.SHA == "" {
		return fmt.Sprintf("extraction failed at row %d: %v", e.Row, e.cause)
	}
	return fmt.Sprintf("extraction failed at row %d (sha256 %s): %v", e.Row, e.SHA, e.cause)
}

func (e *ErrExtraction) Unwrap() error { return e.cause }

// ErrIndexOutOfRange is returned by Reader.Row for an invalid row index.
type ErrIndexOutOfRange struct {
	Index int
	Len   int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("row index %d out of range [0, %d)", e.Index, e.Len)
}

// ErrChecksum indicates that an array file does not match the checksum
// recorded in the manifest.
type ErrChecksum struct {
	File     string
	Expected uint32
	Actual   uint32
}

func (e *ErrChecksum) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: manifest records %08x, file has %08x", e.File, e.Expected, e.Actual)
}
