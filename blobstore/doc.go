// Package blobstore abstracts read-only access to the object stores that
// hold raw sample corpora.
//
// BlobStore is the interface the fetch pipeline consumes. Blobs are
// immutable named objects; a store lists them by prefix and opens them for
// streaming or ranged reads.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, memory-mapped reads
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3, including anonymous access to public buckets
//   - minio.Store: MinIO and other S3-compatible endpoints
package blobstore
