// Package s3 implements blobstore.BlobStore for Amazon S3.
//
// Public research corpora live in buckets that allow unauthenticated reads;
// NewAnonymousClient builds a client for those without requiring AWS
// credentials on the machine.
package s3
