package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/emberstore/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client Client
	bucket string
	prefix string
}

// NewStore creates an S3 blob store.
// rootPrefix is prepended to all keys (e.g. "09/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens a blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// List returns blob names under prefix, sorted ascending.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := aws.ToString(obj.Key)
			if s.prefix != "" {
				rel = strings.TrimPrefix(rel, s.prefix)
				rel = strings.TrimPrefix(rel, "/")
			}
			if rel != "" {
				keys = append(keys, rel)
			}
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Download fetches a whole blob into w using concurrent ranged reads.
// Returns the number of bytes written.
func (s *Store) Download(ctx context.Context, name string, w io.WriterAt) (int64, error) {
	return manager.NewDownloader(s.client).Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
}

type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Size() int64 {
	return b.size
}

func (b *s3Blob) Reader(ctx context.Context) (io.ReadCloser, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.size {
		return nil, io.EOF
	}

	end := off + length - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (b *s3Blob) Close() error {
	return nil
}
