// Package layout defines the on-disk binary layout of a feature store.
//
// A store is a triple of co-indexed flat arrays, one row per sample:
//
//   - X_<name>.dat: features, row-major float32, little-endian, N x FeatureWidth
//   - y_<name>.dat: labels, row-major float32, little-endian, N x LabelWidth
//   - S_<name>.dat: identifiers, fixed-width UTF-32LE slots, N x IDWidth characters
//
// The files carry no header. All dimensions are supplied out-of-band (either by
// the caller or by a manifest sidecar), which keeps the arrays bit-exact with
// stores produced by numpy memmaps of dtype float32 and 'U<IDWidth>'.
package layout

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
)

const (
	// Float32Size is the byte size of one array element.
	Float32Size = 4

	// IDCharSize is the byte size of one identifier character (UTF-32LE code unit).
	IDCharSize = 4

	// DefaultIDWidth is the identifier slot width in characters. 64 holds a
	// hex-encoded sha256.
	DefaultIDWidth = 64
)

// Layout describes the dimensions of the three co-indexed arrays.
// All fields must be fixed before allocation and identical across the
// allocate, write and read phases.
type Layout struct {
	// RowCount is the number of rows N.
	RowCount int
	// FeatureWidth is the number of float32 elements per feature row.
	FeatureWidth int
	// LabelWidth is the number of float32 elements per label row.
	LabelWidth int
	// IDWidth is the identifier slot width in characters.
	IDWidth int
}

// ErrLayoutMismatch indicates that a file on disk does not have the size the
// layout demands. It is fatal on open; the reader never truncates or pads.
type ErrLayoutMismatch struct {
	File     string
	Expected int64
	Actual   int64
}

func (e *ErrLayoutMismatch) Error() string {
	return fmt.Sprintf("layout mismatch: %s is %d bytes, layout demands %d", e.File, e.Actual, e.Expected)
}

// Validate checks that all dimensions are usable.
func (l Layout) Validate() error {
	if l.RowCount < 0 {
		return fmt.Errorf("layout: negative row count %d", l.RowCount)
	}
	if l.FeatureWidth <= 0 {
		return fmt.Errorf("layout: feature width must be positive, got %d", l.FeatureWidth)
	}
	if l.LabelWidth <= 0 {
		return fmt.Errorf("layout: label width must be positive, got %d", l.LabelWidth)
	}
	if l.IDWidth <= 0 {
		return fmt.Errorf("layout: id width must be positive, got %d", l.IDWidth)
	}
	return nil
}

// FeatureRowBytes returns the byte size of one feature row.
func (l Layout) FeatureRowBytes() int64 { return int64(l.FeatureWidth) * Float32Size }

// LabelRowBytes returns the byte size of one label row.
func (l Layout) LabelRowBytes() int64 { return int64(l.LabelWidth) * Float32Size }

// IDRowBytes returns the byte size of one identifier slot.
func (l Layout) IDRowBytes() int64 { return int64(l.IDWidth) * IDCharSize }

// FeatureBytes returns the total byte size of the feature array.
func (l Layout) FeatureBytes() int64 { return int64(l.RowCount) * l.FeatureRowBytes() }

// LabelBytes returns the total byte size of the label array.
func (l Layout) LabelBytes() int64 { return int64(l.RowCount) * l.LabelRowBytes() }

// IDBytes returns the total byte size of the identifier array.
func (l Layout) IDBytes() int64 { return int64(l.RowCount) * l.IDRowBytes() }

// FeatureOffset returns the byte offset of feature row i.
func (l Layout) FeatureOffset(i int) int64 { return int64(i) * l.FeatureRowBytes() }

// LabelOffset returns the byte offset of label row i.
func (l Layout) LabelOffset(i int) int64 { return int64(i) * l.LabelRowBytes() }

// IDOffset returns the byte offset of identifier slot i.
func (l Layout) IDOffset(i int) int64 { return int64(i) * l.IDRowBytes() }

// WithInferredRows returns a copy of l with RowCount derived from the size of
// the identifier file. The identifier array is used because its row size does
// not depend on the extractor configuration.
func (l Layout) WithInferredRows(idFileSize int64) (Layout, error) {
	row := l.IDRowBytes()
	if row <= 0 {
		return l, fmt.Errorf("layout: cannot infer rows with id width %d", l.IDWidth)
	}
	if idFileSize%row != 0 {
		return l, &ErrLayoutMismatch{File: "S", Expected: (idFileSize/row + 1) * row, Actual: idFileSize}
	}
	l.RowCount = int(idFileSize / row)
	return l, nil
}

// CheckSizes verifies that the three file sizes match the layout exactly.
func (l Layout) CheckSizes(featureSize, labelSize, idSize int64) error {
	if want := l.FeatureBytes(); featureSize != want {
		return &ErrLayoutMismatch{File: "X", Expected: want, Actual: featureSize}
	}
	if want := l.LabelBytes(); labelSize != want {
		return &ErrLayoutMismatch{File: "y", Expected: want, Actual: labelSize}
	}
	if want := l.IDBytes(); idSize != want {
		return &ErrLayoutMismatch{File: "S", Expected: want, Actual: idSize}
	}
	return nil
}

// Paths holds the absolute paths of the three array files.
type Paths struct {
	Features string
	Labels   string
	IDs      string
}

// StorePaths returns the conventional file paths for a named store in dir.
// The naming matches existing stores: X_<name>.dat, y_<name>.dat, S_<name>.dat.
func StorePaths(dir, name string) Paths {
	return Paths{
		Features: filepath.Join(dir, "X_"+name+".dat"),
		Labels:   filepath.Join(dir, "y_"+name+".dat"),
		IDs:      filepath.Join(dir, "S_"+name+".dat"),
	}
}

// PutFloats encodes row as little-endian float32 into dst.
// dst must be exactly len(row)*Float32Size bytes.
func PutFloats(dst []byte, row []float32) {
	_ = dst[len(row)*Float32Size-1]
	for i, v := range row {
		binary.LittleEndian.PutUint32(dst[i*Float32Size:], math.Float32bits(v))
	}
}

// Floats decodes a little-endian float32 row from src into dst and returns it.
// If dst is nil or too small, a new slice is allocated.
func Floats(src []byte, dst []float32) []float32 {
	n := len(src) / Float32Size
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*Float32Size:]))
	}
	return dst
}

// PutID encodes id into a fixed-width UTF-32LE slot, zero padded.
// Identifiers longer than the slot are truncated in characters, not bytes.
func PutID(dst []byte, id string, width int) {
	slot := dst[:width*IDCharSize]
	for i := range slot {
		slot[i] = 0
	}
	i := 0
	for _, r := range id {
		if i >= width {
			break
		}
		binary.LittleEndian.PutUint32(slot[i*IDCharSize:], uint32(r))
		i++
	}
}

// ID decodes a fixed-width UTF-32LE slot, stopping at the first NUL character.
func ID(src []byte, width int) string {
	runes := make([]rune, 0, width)
	for i := 0; i < width; i++ {
		u := binary.LittleEndian.Uint32(src[i*IDCharSize:])
		if u == 0 {
			break
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}
