// Package storage keeps copies of the documents citizens submit with an
// electronic signature request.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/joinville/accounts/internal/application/port"
	infraconfig "github.com/joinville/accounts/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure the archives implement DocumentArchive
var (
	_ port.DocumentArchive = (*S3DocumentArchive)(nil)
	_ port.DocumentArchive = (*NopDocumentArchive)(nil)
)

// keyPrefix keeps the signature documents apart from anything else in the
// bucket
const keyPrefix = "signature"

// S3DocumentArchive stores documents in any S3-compatible storage (AWS S3,
// MinIO, RustFS)
type S3DocumentArchive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// Option configures the archive
type Option func(*S3DocumentArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3DocumentArchive) {
		s.logger = logger
	}
}

// NewS3DocumentArchive creates the archive from configuration
func NewS3DocumentArchive(cfg *infraconfig.StorageConfig, opts ...Option) (*S3DocumentArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3DocumentArchive{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Call it at startup.
func (s *S3DocumentArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating document bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads data under signature/<key>
func (s *S3DocumentArchive) Store(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	key = path.Join(keyPrefix, key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", key, err)
	}

	s.logger.Debug("Document archived", zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

// Bucket returns the bucket name
func (s *S3DocumentArchive) Bucket() string {
	return s.bucket
}

// NopDocumentArchive discards documents. It is used when storage is
// disabled.
type NopDocumentArchive struct{}

// Store does nothing
func (NopDocumentArchive) Store(context.Context, string, []byte, string) error {
	return nil
}

// New returns the S3 archive when storage is enabled and a no-op archive
// otherwise
func New(ctx context.Context, cfg infraconfig.StorageConfig, logger *zap.Logger) (port.DocumentArchive, error) {
	if !cfg.Enabled {
		return NopDocumentArchive{}, nil
	}
	archive, err := NewS3DocumentArchive(&cfg, WithLogger(logger.Named("storage")))
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}
