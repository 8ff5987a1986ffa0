// Package manifest manages the success marker of a feature store build.
//
// The array files themselves are headerless (for bit-exact interoperability
// with existing stores), so the manifest sidecar carries the out-of-band
// schema: row count, widths, format version and per-file checksums. It is
// written atomically (temp file + rename + CURRENT pointer) and only after a
// build has fully completed. A store directory without a loadable manifest
// must be treated as incomplete.
package manifest

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/emberstore/codec"
	"github.com/hupe1980/emberstore/internal/fs"
	"github.com/hupe1980/emberstore/layout"
)

const (
	// ManifestFileName is the prefix of versioned manifest files.
	ManifestFileName = "MANIFEST"
	// CurrentFileName is the pointer file naming the active manifest.
	CurrentFileName = "CURRENT"
	// CurrentVersion is the manifest format version.
	CurrentVersion = 1

	// SigToLabelFileName maps family signature names to integer labels.
	SigToLabelFileName = "sig_to_label.json"
)

// ErrNoManifest is returned when a store directory has no committed manifest.
type ErrNoManifest struct {
	Dir string
}

func (e *ErrNoManifest) Error() string {
	return fmt.Sprintf("no manifest in %s: store is missing or was not built to completion", e.Dir)
}

// Manifest records the schema and provenance of one completed store.
type Manifest struct {
	Version      int    `json:"version"`
	ID           uint64 `json:"id"`
	Store        string `json:"store"`
	RowCount     int    `json:"row_count"`
	FeatureWidth int    `json:"feature_width"`
	LabelWidth   int    `json:"label_width"`
	IDWidth      int    `json:"id_width"`

	// Checksums maps array file base names to CRC32 (IEEE) of their contents.
	Checksums map[string]uint32 `json:"checksums,omitempty"`

	// FailedRows lists sentinel rows when the build ran with the sentinel
	// failure policy. Empty for fail-fast builds.
	FailedRows []int `json:"failed_rows,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Layout returns the array layout recorded in the manifest.
func (m *Manifest) Layout() layout.Layout {
	return layout.Layout{
		RowCount:     m.RowCount,
		FeatureWidth: m.FeatureWidth,
		LabelWidth:   m.LabelWidth,
		IDWidth:      m.IDWidth,
	}
}

// CRC32 computes the checksum recorded per array file. IEEE polynomial:
// fast, standard, good enough for detecting storage corruption (this is not
// tamper protection).
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Store manages manifest files in one store directory with atomic updates.
type Store struct {
	fs    fs.FileSystem
	dir   string
	codec codec.Codec
	mu    sync.Mutex
}

// NewStore creates a manifest store for dir. fsys defaults to the local file
// system, c to codec.Default.
func NewStore(fsys fs.FileSystem, dir string, c codec.Codec) *Store {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}
	return &Store{fs: fsys, dir: dir, codec: c}
}

// Load reads the committed manifest. It returns *ErrNoManifest when no
// CURRENT pointer exists.
func (s *Store) Load() (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.readFile(filepath.Join(s.dir, CurrentFileName))
	if os.IsNotExist(err) {
		return nil, &ErrNoManifest{Dir: s.dir}
	}
	if err != nil {
		return nil, err
	}

	data, err := s.readFile(filepath.Join(s.dir, string(content)))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("manifest: unsupported version %d (expected %d)", m.Version, CurrentVersion)
	}
	return &m, nil
}

// Save atomically commits a new manifest and repoints CURRENT at it.
func (s *Store) Save(m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.ID++
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := s.codec.Marshal(m)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s-%06d.json", ManifestFileName, m.ID)
	if err := s.writeAtomic(filepath.Join(s.dir, filename), data); err != nil {
		return err
	}

	return s.writeAtomic(filepath.Join(s.dir, CurrentFileName), []byte(filename))
}

// Remove deletes the CURRENT pointer, invalidating the store. Used when a
// rebuild starts over an existing directory.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(filepath.Join(s.dir, CurrentFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) readFile(path string) ([]byte, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return err
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	return nil
}
