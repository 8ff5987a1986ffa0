// Immutable fluent builder APIs over the store package. Builders are value
// types: each method returns a copy with the updated configuration, so a
// partially configured builder can be shared and branched safely.
package emberstore

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/emberstore/blobstore"
	"github.com/hupe1980/emberstore/codec"
	"github.com/hupe1980/emberstore/extract"
	"github.com/hupe1980/emberstore/fetch"
	"github.com/hupe1980/emberstore/layout"
	"github.com/hupe1980/emberstore/rawio"
	"github.com/hupe1980/emberstore/store"
)

// Build creates a build configuration for the store name in dir, using the
// given extractor for the feature columns.
//
// Example:
//
//	res, err := emberstore.Build("./data", "train", extractor).
//	    Workers(8).
//	    LabelWidth(1).
//	    Run(ctx, rawFiles...)
func Build(dir, name string, extractor extract.Extractor) BuildBuilder {
	return BuildBuilder{
		dir:       dir,
		name:      name,
		extractor: extractor,
	}
}

// BuildBuilder is an immutable fluent configuration for a store build.
type BuildBuilder struct {
	dir       string
	name      string
	extractor extract.Extractor
	workers   int
	labelWid  int
	idWid     int
	sentinel  bool
	codec     codec.Codec
	logger    *Logger
	metrics   MetricsCollector
	progress  func(done, total int)
}

// Workers sets the size of the extraction worker pool.
// Default: GOMAXPROCS.
func (b BuildBuilder) Workers(n int) BuildBuilder {
	b.workers = n
	return b
}

// LabelWidth sets the number of float32 label slots per row.
// 1 for a scalar target, 2+len(tags) for malware/count/tags blocks.
// Default: 1.
func (b BuildBuilder) LabelWidth(l int) BuildBuilder {
	b.labelWid = l
	return b
}

// IDWidth sets the identifier slot width in characters.
// Default: 64, the width of a hex SHA-256.
func (b BuildBuilder) IDWidth(w int) BuildBuilder {
	b.idWid = w
	return b
}

// Sentinel switches the build from fail-fast to the sentinel failure policy:
// records that cannot be parsed or extracted keep a zeroed row and are listed
// in the manifest instead of aborting the build.
func (b BuildBuilder) Sentinel() BuildBuilder {
	b.sentinel = true
	return b
}

// Codec sets the JSON codec used for record parsing and the manifest.
func (b BuildBuilder) Codec(c codec.Codec) BuildBuilder {
	b.codec = c
	return b
}

// Logger sets the structured logger for build tracing.
func (b BuildBuilder) Logger(l *Logger) BuildBuilder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b BuildBuilder) Metrics(mc MetricsCollector) BuildBuilder {
	b.metrics = mc
	return b
}

// Progress sets a callback invoked after every finished row.
func (b BuildBuilder) Progress(fn func(done, total int)) BuildBuilder {
	b.progress = fn
	return b
}

// Run executes the build over the given raw record files, in order.
func (b BuildBuilder) Run(ctx context.Context, rawPaths ...string) (*store.Result, error) {
	return b.run(ctx, rawio.NewReader(rawPaths...))
}

// RunDir executes the build over every raw record file found in rawDir,
// in lexical order.
func (b BuildBuilder) RunDir(ctx context.Context, rawDir string) (*store.Result, error) {
	paths, err := rawio.ListRawFiles(rawDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no raw record files in %s", rawDir)
	}
	return b.run(ctx, rawio.NewReader(paths...))
}

func (b BuildBuilder) run(ctx context.Context, reader *rawio.Reader) (*store.Result, error) {
	sb, err := store.NewBuilder(b.dir, b.name, b.extractor, func(o *store.BuildOptions) {
		if b.workers > 0 {
			o.Workers = b.workers
		}
		if b.labelWid > 0 {
			o.LabelWidth = b.labelWid
		}
		if b.idWid > 0 {
			o.IDWidth = b.idWid
		}
		if b.sentinel {
			o.Policy = store.Sentinel
		}
		if b.codec != nil {
			o.Codec = b.codec
		}
		if b.logger != nil {
			o.Logger = b.logger.Logger
		}
		if b.progress != nil {
			o.Progress = b.progress
		}
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := sb.Build(ctx, reader)

	if b.metrics != nil {
		rows, failed := 0, 0
		if res != nil {
			rows, failed = res.Rows, len(res.FailedRows)
		}
		b.metrics.RecordBuild(rows, failed, time.Since(start), err)
	}
	if b.logger != nil {
		rows, failed := 0, 0
		if res != nil {
			rows, failed = res.Rows, len(res.FailedRows)
		}
		b.logger.LogBuild(ctx, b.name, rows, failed, err)
	}

	return res, translateError(err)
}

// Open creates an open configuration for the store name in dir.
//
// Example:
//
//	r, err := emberstore.Open("./data", "train").
//	    VerifyChecksums().
//	    Reader()
func Open(dir, name string) OpenBuilder {
	return OpenBuilder{dir: dir, name: name}
}

// OpenBuilder is an immutable fluent configuration for opening a store.
type OpenBuilder struct {
	dir     string
	name    string
	layout  *layout.Layout
	verify  bool
	codec   codec.Codec
	logger  *Logger
	metrics MetricsCollector
}

// Layout supplies the array layout explicitly instead of reading it from the
// manifest. Required for legacy store directories that carry no manifest.
// A zero RowCount is inferred from the id file size.
func (b OpenBuilder) Layout(l layout.Layout) OpenBuilder {
	b.layout = &l
	return b
}

// VerifyChecksums validates every array file against the manifest checksums
// before the reader is returned. Reads all three files once.
func (b OpenBuilder) VerifyChecksums() OpenBuilder {
	b.verify = true
	return b
}

// Codec sets the JSON codec used for the manifest.
func (b OpenBuilder) Codec(c codec.Codec) OpenBuilder {
	b.codec = c
	return b
}

// Logger sets the structured logger.
func (b OpenBuilder) Logger(l *Logger) OpenBuilder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b OpenBuilder) Metrics(mc MetricsCollector) OpenBuilder {
	b.metrics = mc
	return b
}

// Reader opens the store for random access.
func (b OpenBuilder) Reader() (*store.Reader, error) {
	start := time.Now()

	r, err := store.Open(b.dir, b.name, func(o *store.OpenOptions) {
		if b.layout != nil {
			o.Layout = b.layout
		}
		o.VerifyChecksums = b.verify
		if b.codec != nil {
			o.Codec = b.codec
		}
	})

	if b.metrics != nil {
		b.metrics.RecordOpen(time.Since(start), err)
	}
	if b.logger != nil {
		rows := 0
		if r != nil {
			rows = r.Len()
		}
		b.logger.LogOpen(context.Background(), b.name, rows, err)
	}

	return r, translateError(err)
}

// Mirror creates a mirror configuration that copies raw corpus objects from
// src into destDir.
//
// Example:
//
//	res, err := emberstore.Mirror(src, "./raw").
//	    Concurrency(8).
//	    Run(ctx, "09/")
func Mirror(src blobstore.BlobStore, destDir string) MirrorBuilder {
	return MirrorBuilder{src: src, dest: destDir}
}

// MirrorBuilder is an immutable fluent configuration for a corpus mirror run.
type MirrorBuilder struct {
	src       blobstore.BlobStore
	dest      string
	conc      int
	rps       float64
	overwrite bool
	logger    *Logger
	metrics   MetricsCollector
	progress  func(done, total int)
}

// Concurrency sets the number of parallel downloads.
// Default: GOMAXPROCS.
func (b MirrorBuilder) Concurrency(n int) MirrorBuilder {
	b.conc = n
	return b
}

// RateLimit caps download starts per second. Zero means unlimited.
func (b MirrorBuilder) RateLimit(rps float64) MirrorBuilder {
	b.rps = rps
	return b
}

// Overwrite re-downloads files that already exist locally.
func (b MirrorBuilder) Overwrite() MirrorBuilder {
	b.overwrite = true
	return b
}

// Logger sets the structured logger for per-file tracing.
func (b MirrorBuilder) Logger(l *Logger) MirrorBuilder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b MirrorBuilder) Metrics(mc MetricsCollector) MirrorBuilder {
	b.metrics = mc
	return b
}

// Progress sets a callback invoked after every finished object.
func (b MirrorBuilder) Progress(fn func(done, total int)) MirrorBuilder {
	b.progress = fn
	return b
}

// Run mirrors every object under prefix into the destination directory.
func (b MirrorBuilder) Run(ctx context.Context, prefix string) (*fetch.Result, error) {
	f := fetch.New(b.src, b.dest, func(o *fetch.Options) {
		if b.conc > 0 {
			o.Concurrency = b.conc
		}
		o.RequestsPerSecond = b.rps
		o.Overwrite = b.overwrite
		if b.logger != nil {
			o.Logger = b.logger.Logger
		}
		if b.progress != nil {
			o.Progress = b.progress
		}
	})

	start := time.Now()
	res, err := f.Fetch(ctx, prefix)

	if b.metrics != nil {
		downloaded, skipped, bytes := 0, 0, int64(0)
		if res != nil {
			downloaded, skipped, bytes = res.Downloaded, res.Skipped, res.Bytes
		}
		b.metrics.RecordFetch(downloaded, skipped, bytes, time.Since(start), err)
	}
	if b.logger != nil {
		downloaded, skipped, bytes := 0, 0, int64(0)
		if res != nil {
			downloaded, skipped, bytes = res.Downloaded, res.Skipped, res.Bytes
		}
		b.logger.LogFetch(ctx, downloaded, skipped, bytes, err)
	}

	return res, err
}
