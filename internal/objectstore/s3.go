package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"carematch/internal/platform/config"
	"carematch/pkg/platform/sentinel"
)

// S3Reader reads documents from one bucket.
type S3Reader struct {
	client *s3.Client
	bucket string
}

// NewS3Reader loads AWS credentials from the default chain. A custom endpoint
// (MinIO, LocalStack) can be set with path-style addressing.
func NewS3Reader(ctx context.Context, cfg config.StorageConfig) (*S3Reader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("document bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Reader{client: client, bucket: cfg.Bucket}, nil
}

func (r *S3Reader) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object %q: %w", key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > MaxObjectBytes {
		return nil, ErrTooLarge
	}
	return readLimited(out.Body)
}
