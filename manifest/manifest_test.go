package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/emberstore/internal/fs"
	"github.com/hupe1980/emberstore/layout"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(nil, dir, nil)

	m := &Manifest{
		Store:        "fresh",
		RowCount:     100,
		FeatureWidth: 2381,
		LabelWidth:   1,
		IDWidth:      64,
		Checksums:    map[string]uint32{"X_fresh.dat": 123, "y_fresh.dat": 456},
	}
	require.NoError(t, s.Save(m))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, uint64(1), got.ID)
	assert.Equal(t, "fresh", got.Store)
	assert.Equal(t, m.Checksums, got.Checksums)
	assert.False(t, got.CreatedAt.IsZero())

	assert.Equal(t, layout.Layout{
		RowCount:     100,
		FeatureWidth: 2381,
		LabelWidth:   1,
		IDWidth:      64,
	}, got.Layout())
}

func TestLoadWithoutManifest(t *testing.T) {
	s := NewStore(nil, t.TempDir(), nil)

	_, err := s.Load()
	var noManifest *ErrNoManifest
	assert.ErrorAs(t, err, &noManifest)
}

func TestSaveIncrementsID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(nil, dir, nil)

	m := &Manifest{Store: "train", RowCount: 1, FeatureWidth: 1, LabelWidth: 1, IDWidth: 64}
	require.NoError(t, s.Save(m))
	require.NoError(t, s.Save(m))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.ID)
}

func TestRemoveInvalidatesStore(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(nil, dir, nil)

	require.NoError(t, s.Save(&Manifest{Store: "t", RowCount: 1, FeatureWidth: 1, LabelWidth: 1, IDWidth: 64}))
	require.NoError(t, s.Remove())

	_, err := s.Load()
	var noManifest *ErrNoManifest
	assert.ErrorAs(t, err, &noManifest)

	// Removing twice is fine.
	assert.NoError(t, s.Remove())
}

func TestSaveFailureLeavesNoManifest(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(ManifestFileName, fs.Fault{FailOnSync: true, FailAfterBytes: -1})

	s := NewStore(ffs, dir, nil)
	err := s.Save(&Manifest{Store: "t", RowCount: 1, FeatureWidth: 1, LabelWidth: 1, IDWidth: 64})
	require.Error(t, err)

	_, err = NewStore(nil, dir, nil).Load()
	var noManifest *ErrNoManifest
	assert.ErrorAs(t, err, &noManifest)
}

func TestSigToLabelRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := map[string]int{"emotet": 0, "qakbot": 1, "trickbot": 2}

	require.NoError(t, WriteSigToLabel(dir, in))
	got, err := ReadSigToLabel(dir)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	inv := LabelToSig(in)
	assert.Equal(t, "qakbot", inv[1])
}

func TestCRC32(t *testing.T) {
	assert.Equal(t, CRC32([]byte("data")), CRC32([]byte("data")))
	assert.NotEqual(t, CRC32([]byte("data")), CRC32([]byte("atad")))
}
