package store

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/emberstore/codec"
	"github.com/hupe1980/emberstore/internal/fs"
	"github.com/hupe1980/emberstore/layout"
)

// FailurePolicy controls how the builder reacts to a record that cannot be
// parsed or vectorized.
type FailurePolicy int

const (
	// FailFast aborts the whole build on the first bad record. This is the
	// default: a skipped row would be uninitialized with no marker.
	FailFast FailurePolicy = iota
	// Sentinel zero-fills the row of a bad record and lists the row index in
	// the manifest instead of aborting.
	Sentinel
)

// BuildOptions configures a Builder.
type BuildOptions struct {
	// Workers is the size of the write pool. Defaults to GOMAXPROCS.
	Workers int

	// LabelWidth is the number of float32 label values per row.
	// 1 for a single scalar target; 2+len(tags) for malware/count/tags rows.
	LabelWidth int

	// IDWidth is the identifier slot width in characters.
	IDWidth int

	// Policy selects the failure policy. Defaults to FailFast.
	Policy FailurePolicy

	// Codec decodes raw record envelopes. Defaults to codec.Default.
	Codec codec.Codec

	// FS is the file system used for allocation and the manifest.
	// Defaults to the local file system.
	FS fs.FileSystem

	// Logger receives build progress. Defaults to a discarding logger.
	Logger *slog.Logger

	// Progress, if set, is called after every written row with the number of
	// completed rows and the total. Calls arrive from worker goroutines.
	Progress func(done, total int)
}

// DefaultBuildOptions returns the default build configuration.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Workers:    runtime.GOMAXPROCS(0),
		LabelWidth: 1,
		IDWidth:    layout.DefaultIDWidth,
		Policy:     FailFast,
		Codec:      codec.Default,
		FS:         fs.Default,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// OpenOptions configures Open.
type OpenOptions struct {
	// Layout overrides the manifest. Required for legacy stores without a
	// manifest: FeatureWidth, LabelWidth and IDWidth must be set; RowCount 0
	// means "infer from file size".
	Layout *layout.Layout

	// VerifyChecksums re-hashes the array files against the manifest on open.
	// Reads every byte; intended for post-transfer validation, not hot paths.
	VerifyChecksums bool

	// FS is used to load the manifest. Defaults to the local file system.
	FS fs.FileSystem

	// Codec decodes the manifest. Defaults to codec.Default.
	Codec codec.Codec
}

// DefaultOpenOptions returns the default open configuration.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		FS:    fs.Default,
		Codec: codec.Default,
	}
}
