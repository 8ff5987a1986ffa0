package minio

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/emberstore/blobstore"
)

// Integration test against a live MinIO endpoint. Set MINIO_ENDPOINT,
// MINIO_ACCESS_KEY and MINIO_SECRET_KEY to enable, e.g. against a local
// `minio server` instance.
func TestStoreIntegration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
	})
	require.NoError(t, err)

	ctx := context.Background()
	bucket := "emberstore-test"

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	payload := []byte("0123456789")
	_, err = client.PutObject(ctx, bucket, "raw/part_0.jsonl", bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{})
	require.NoError(t, err)

	store := NewStore(client, bucket, "raw")

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "part_0.jsonl")

	blob, err := store.Open(ctx, "part_0.jsonl")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(10), blob.Size())

	r, err := blob.ReadRange(ctx, 2, 5)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "23456", string(data))

	_, err = store.Open(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
