// Package bundle packs a completed feature store into a single portable
// archive and unpacks it again.
//
// A bundle is an lz4-compressed tar stream holding the three array files,
// the committed manifest with its CURRENT pointer and, when present, the
// family signature mapping. Only stores with a committed manifest can be
// exported; imports are verified against the manifest checksums before the
// bundle is considered usable.
package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/emberstore/layout"
	"github.com/hupe1980/emberstore/manifest"
	"github.com/hupe1980/emberstore/store"
)

// Extension is the conventional bundle file suffix.
const Extension = ".tar.lz4"

// ErrUnsafeEntry is returned when a bundle contains an entry that would
// escape the destination directory.
var ErrUnsafeEntry = errors.New("bundle: archive entry escapes destination directory")

// Info describes an exported or imported bundle.
type Info struct {
	Store string
	Rows  int
	Files []string
}

// Export writes the store name from dir into an archive at outPath.
// The store must have a committed manifest.
func Export(dir, name, outPath string) (*Info, error) {
	manifests := manifest.NewStore(nil, dir, nil)
	m, err := manifests.Load()
	if err != nil {
		return nil, err
	}
	if m.Store != name {
		return nil, fmt.Errorf("bundle: directory %s holds store %q, not %q", dir, m.Store, name)
	}

	current, err := os.ReadFile(filepath.Join(dir, manifest.CurrentFileName))
	if err != nil {
		return nil, err
	}
	manifestFile := strings.TrimSpace(string(current))

	paths := layout.StorePaths(dir, name)
	files := []string{
		filepath.Base(paths.Features),
		filepath.Base(paths.Labels),
		filepath.Base(paths.IDs),
		manifestFile,
		manifest.CurrentFileName,
	}
	if _, err := os.Stat(filepath.Join(dir, manifest.SigToLabelFileName)); err == nil {
		files = append(files, manifest.SigToLabelFileName)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), filepath.Base(outPath)+".tmp*")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	lzw := lz4.NewWriter(tmp)
	tw := tar.NewWriter(lzw)

	for _, file := range files {
		if err := addFile(tw, dir, file); err != nil {
			_ = tmp.Close()
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := lzw.Close(); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return nil, err
	}

	return &Info{Store: name, Rows: m.RowCount, Files: files}, nil
}

// Import unpacks the archive at bundlePath into destDir and verifies the
// extracted store against its manifest checksums.
func Import(bundlePath, destDir string) (*Info, error) {
	f, err := os.Open(bundlePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}

	tr := tar.NewReader(lz4.NewReader(f))

	var files []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || strings.Contains(name, "..") || strings.ContainsRune(name, os.PathSeparator) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeEntry, hdr.Name)
		}

		if err := writeEntry(filepath.Join(destDir, name), tr); err != nil {
			return nil, err
		}
		files = append(files, name)
	}

	manifests := manifest.NewStore(nil, destDir, nil)
	m, err := manifests.Load()
	if err != nil {
		return nil, err
	}

	r, err := store.Open(destDir, m.Store, func(o *store.OpenOptions) {
		o.VerifyChecksums = true
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return &Info{Store: m.Store, Rows: r.Len(), Files: files}, nil
}

func addFile(tw *tar.Writer, dir, name string) error {
	path := filepath.Join(dir, name)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: info.ModTime().Truncate(time.Second),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

func writeEntry(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
