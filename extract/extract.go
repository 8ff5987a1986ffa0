// Package extract defines the feature extractor boundary of the store builder.
//
// An Extractor turns one raw record into a fixed-length float32 feature
// vector. The production extractor for PE malware features lives outside this
// repository; the builder only relies on the contract below. A feature-hashing
// reference extractor is provided for pipelines that want a self-contained
// vectorization of arbitrary raw JSON payloads.
package extract

import "github.com/hupe1980/emberstore/record"

// Extractor converts raw records into feature vectors.
//
// Implementations must behave as pure functions: the same record always yields
// the same vector, with no shared mutable state, because build workers call
// Extract concurrently.
type Extractor interface {
	// Dim returns the fixed feature vector length.
	Dim() int
	// Extract computes the feature vector for one record. The returned slice
	// must have exactly Dim elements.
	Extract(raw *record.Raw) ([]float32, error)
}
