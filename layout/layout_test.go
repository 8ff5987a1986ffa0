package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		l := Layout{RowCount: 10, FeatureWidth: 2381, LabelWidth: 1, IDWidth: 64}
		assert.NoError(t, l.Validate())
	})

	t.Run("zero rows is valid", func(t *testing.T) {
		l := Layout{RowCount: 0, FeatureWidth: 4, LabelWidth: 1, IDWidth: 64}
		assert.NoError(t, l.Validate())
	})

	t.Run("invalid widths", func(t *testing.T) {
		assert.Error(t, Layout{RowCount: 1, FeatureWidth: 0, LabelWidth: 1, IDWidth: 64}.Validate())
		assert.Error(t, Layout{RowCount: 1, FeatureWidth: 4, LabelWidth: 0, IDWidth: 64}.Validate())
		assert.Error(t, Layout{RowCount: 1, FeatureWidth: 4, LabelWidth: 1, IDWidth: 0}.Validate())
		assert.Error(t, Layout{RowCount: -1, FeatureWidth: 4, LabelWidth: 1, IDWidth: 64}.Validate())
	})
}

func TestLayoutOffsets(t *testing.T) {
	l := Layout{RowCount: 100, FeatureWidth: 2381, LabelWidth: 3, IDWidth: 64}

	assert.Equal(t, int64(2381*4), l.FeatureRowBytes())
	assert.Equal(t, int64(3*4), l.LabelRowBytes())
	assert.Equal(t, int64(64*4), l.IDRowBytes())

	assert.Equal(t, int64(0), l.FeatureOffset(0))
	assert.Equal(t, int64(7*2381*4), l.FeatureOffset(7))
	assert.Equal(t, int64(7*3*4), l.LabelOffset(7))
	assert.Equal(t, int64(7*64*4), l.IDOffset(7))

	assert.Equal(t, int64(100*2381*4), l.FeatureBytes())
	assert.Equal(t, int64(100*3*4), l.LabelBytes())
	assert.Equal(t, int64(100*64*4), l.IDBytes())
}

func TestCheckSizes(t *testing.T) {
	l := Layout{RowCount: 5, FeatureWidth: 8, LabelWidth: 2, IDWidth: 64}

	require.NoError(t, l.CheckSizes(l.FeatureBytes(), l.LabelBytes(), l.IDBytes()))

	err := l.CheckSizes(l.FeatureBytes()+4, l.LabelBytes(), l.IDBytes())
	var lm *ErrLayoutMismatch
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, "X", lm.File)
	assert.Equal(t, l.FeatureBytes(), lm.Expected)

	err = l.CheckSizes(l.FeatureBytes(), 0, l.IDBytes())
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, "y", lm.File)
}

func TestWithInferredRows(t *testing.T) {
	l := Layout{FeatureWidth: 8, LabelWidth: 1, IDWidth: 64}

	got, err := l.WithInferredRows(3 * l.IDRowBytes())
	require.NoError(t, err)
	assert.Equal(t, 3, got.RowCount)

	_, err = l.WithInferredRows(3*l.IDRowBytes() + 1)
	assert.Error(t, err)
}

func TestStorePaths(t *testing.T) {
	p := StorePaths("/data", "fresh")
	assert.Equal(t, "/data/X_fresh.dat", p.Features)
	assert.Equal(t, "/data/y_fresh.dat", p.Labels)
	assert.Equal(t, "/data/S_fresh.dat", p.IDs)
}

func TestFloatRoundTrip(t *testing.T) {
	row := []float32{0, 1.5, -3.25, 1e-9}
	buf := make([]byte, len(row)*Float32Size)
	PutFloats(buf, row)

	got := Floats(buf, nil)
	assert.Equal(t, row, got)

	// Reuse path.
	scratch := make([]float32, 0, 8)
	got = Floats(buf, scratch)
	assert.Equal(t, row, got)
}

func TestFloatsLittleEndian(t *testing.T) {
	buf := make([]byte, 4)
	PutFloats(buf, []float32{1.0})
	// float32(1.0) = 0x3f800000, little-endian on disk.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf)
}

func TestIDRoundTrip(t *testing.T) {
	t.Run("ascii sha", func(t *testing.T) {
		id := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
		buf := make([]byte, 64*IDCharSize)
		PutID(buf, id, 64)
		assert.Equal(t, id, ID(buf, 64))
	})

	t.Run("numpy U64 byte layout", func(t *testing.T) {
		buf := make([]byte, 64*IDCharSize)
		PutID(buf, "ab", 64)
		// 'a' and 'b' as UTF-32LE code units, remainder NUL padded.
		assert.Equal(t, []byte{'a', 0, 0, 0, 'b', 0, 0, 0}, buf[:8])
		for _, b := range buf[8:] {
			assert.Zero(t, b)
		}
	})

	t.Run("truncates by characters", func(t *testing.T) {
		buf := make([]byte, 4*IDCharSize)
		PutID(buf, "abcdef", 4)
		assert.Equal(t, "abcd", ID(buf, 4))
	})

	t.Run("overwrite leaves no residue", func(t *testing.T) {
		buf := make([]byte, 8*IDCharSize)
		PutID(buf, "longerid", 8)
		PutID(buf, "ab", 8)
		assert.Equal(t, "ab", ID(buf, 8))
	})
}
