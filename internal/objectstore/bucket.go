package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gocloud.dev/blob"
	"gocloud.dev/blob/s3blob"
)

// Config holds the S3 endpoint and the credentials used for diagnostics.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// OpenBucketFunc opens a bucket by name.
type OpenBucketFunc func(ctx context.Context, name string) (*blob.Bucket, error)

// S3Opener returns an OpenBucketFunc for a path-style S3 endpoint such as MinIO.
func S3Opener(cfg Config) OpenBucketFunc {
	return func(ctx context.Context, name string) (*blob.Bucket, error) {
		awsCfg := aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
		bucket, err := s3blob.OpenBucket(ctx, client, name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open bucket %s: %w", name, err)
		}
		return bucket, nil
	}
}

// BucketReport is the outcome of CheckBucket.
type BucketReport struct {
	Bucket     string
	Accessible bool
	Objects    []string
}

// Checker verifies connector buckets.
type Checker struct {
	open   OpenBucketFunc
	logger *slog.Logger
}

// NewChecker creates a Checker.
func NewChecker(open OpenBucketFunc, logger *slog.Logger) *Checker {
	return &Checker{open: open, logger: logger}
}

// CheckBucket reports whether the bucket is reachable and lists its object keys.
// An unreachable bucket is reported, not returned as an error.
func (c *Checker) CheckBucket(ctx context.Context, name string) (*BucketReport, error) {
	bucket, err := c.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := bucket.Close(); closeErr != nil {
			c.logger.Error("failed to close bucket", slog.String("bucket", name), slog.Any("error", closeErr))
		}
	}()

	report := &BucketReport{Bucket: name}
	accessible, err := bucket.IsAccessible(ctx)
	if err != nil {
		c.logger.Warn("bucket not accessible", slog.String("bucket", name), slog.Any("error", err))
		return report, nil
	}
	report.Accessible = accessible
	if !accessible {
		return report, nil
	}

	iter := bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, fmt.Errorf("failed to list bucket %s: %w", name, err)
		}
		report.Objects = append(report.Objects, obj.Key)
	}
	return report, nil
}
