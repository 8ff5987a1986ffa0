// Package emberstore builds and serves out-of-core feature stores for
// malware-analysis ML pipelines.
//
// A feature store converts a corpus of newline-delimited JSON sample records
// into three co-indexed, memory-mapped arrays: features (N x D float32),
// labels (N x L float32) and sample identifiers (N x W fixed-width strings).
// Row i of every array describes the same sample, so datasets far larger
// than RAM can be consumed by training loops through random access.
//
// # Quick Start
//
// Build a store from raw record files:
//
//	ctx := context.Background()
//	res, err := emberstore.Build("./data", "train", extractor).
//	    Workers(8).
//	    Logger(emberstore.NewTextLogger(slog.LevelInfo)).
//	    Run(ctx, rawFiles...)
//
// Open it for random access:
//
//	r, err := emberstore.Open("./data", "train").
//	    VerifyChecksums().
//	    Reader()
//	defer r.Close()
//
//	row, err := r.Row(42)
//
// # Build Model
//
// Builds are two-phase. Phase 1 counts the records and allocates all three
// array files at their final size. Phase 2 runs a bounded worker pool where
// each worker owns private read-write mappings and writes finished rows at
// their assigned offsets, so completion order never affects the output. A
// build is only complete once its manifest is committed; a directory without
// a loadable manifest must be treated as an aborted build.
//
// # Failure Model
//
// By default any unparseable or unextractable record aborts the build
// (fail-fast) and no manifest is written. The opt-in sentinel policy instead
// zero-fills failed rows and records their indices in the manifest.
package emberstore
