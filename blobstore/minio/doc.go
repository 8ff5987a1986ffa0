// Package minio implements blobstore.BlobStore for MinIO and other
// S3-compatible endpoints. Useful when a corpus mirror is hosted on-prem.
package minio
