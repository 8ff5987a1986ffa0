package main

import (
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/hupe1980/emberstore"
	"github.com/hupe1980/emberstore/blobstore"
	minioblob "github.com/hupe1980/emberstore/blobstore/minio"
	s3blob "github.com/hupe1980/emberstore/blobstore/s3"
)

var fetchFlags struct {
	bucket      string
	region      string
	prefix      string
	dest        string
	endpoint    string
	anonymous   bool
	concurrency int
	rps         float64
	overwrite   bool
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror a raw sample corpus into a local directory",
	Long: `Mirror raw record files from an object store into a local directory.

Public research corpora (e.g. the SOREL-20M bucket) allow unauthenticated
reads; use --anonymous for those. Files already present locally with the
expected size are skipped, so an interrupted mirror can simply be rerun.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var src blobstore.BlobStore
		switch {
		case fetchFlags.endpoint != "":
			var creds *credentials.Credentials
			if fetchFlags.anonymous {
				creds = credentials.NewStaticV4("", "", "")
			} else {
				creds = credentials.NewEnvMinio()
			}
			client, err := minio.New(fetchFlags.endpoint, &minio.Options{Creds: creds})
			if err != nil {
				return err
			}
			src = minioblob.NewStore(client, fetchFlags.bucket, "")
		case fetchFlags.anonymous:
			client, err := s3blob.NewAnonymousClient(ctx, fetchFlags.region)
			if err != nil {
				return err
			}
			src = s3blob.NewStore(client, fetchFlags.bucket, "")
		default:
			client, err := s3blob.NewClient(ctx, fetchFlags.region)
			if err != nil {
				return err
			}
			src = s3blob.NewStore(client, fetchFlags.bucket, "")
		}

		metrics := &emberstore.BasicMetricsCollector{}

		m := emberstore.Mirror(src, fetchFlags.dest).
			RateLimit(fetchFlags.rps).
			Logger(logger()).
			Metrics(metrics)
		if fetchFlags.concurrency > 0 {
			m = m.Concurrency(fetchFlags.concurrency)
		}
		if fetchFlags.overwrite {
			m = m.Overwrite()
		}

		res, err := m.Run(ctx, fetchFlags.prefix)
		if err != nil {
			return err
		}

		stats := metrics.GetStats()
		fmt.Printf("downloaded %d, skipped %d, %d bytes in %s\n",
			res.Downloaded, res.Skipped, res.Bytes,
			time.Duration(stats.FetchAvgNanos))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFlags.bucket, "bucket", "", "source bucket name")
	fetchCmd.Flags().StringVar(&fetchFlags.region, "region", "us-east-1", "bucket region")
	fetchCmd.Flags().StringVar(&fetchFlags.prefix, "prefix", "", "object key prefix to mirror")
	fetchCmd.Flags().StringVar(&fetchFlags.dest, "dest", ".", "destination directory")
	fetchCmd.Flags().StringVar(&fetchFlags.endpoint, "endpoint", "", "S3-compatible endpoint (MinIO) instead of AWS")
	fetchCmd.Flags().BoolVar(&fetchFlags.anonymous, "anonymous", false, "use anonymous credentials (public buckets)")
	fetchCmd.Flags().IntVar(&fetchFlags.concurrency, "concurrency", 0, "parallel downloads (default GOMAXPROCS)")
	fetchCmd.Flags().Float64Var(&fetchFlags.rps, "rps", 0, "max download starts per second (0 = unlimited)")
	fetchCmd.Flags().BoolVar(&fetchFlags.overwrite, "overwrite", false, "re-download files that already exist")
	_ = fetchCmd.MarkFlagRequired("bucket")

	rootCmd.AddCommand(fetchCmd)
}
