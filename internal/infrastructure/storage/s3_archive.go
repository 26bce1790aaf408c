// Package storage archives received order payloads in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/erp/ordersync/internal/domain/integration"
)

var (
	_ integration.PayloadArchive = (*S3PayloadArchive)(nil)
	_ integration.PayloadArchive = NoopArchive{}
)

// ArchiveConfig holds the object storage settings for the payload archive.
type ArchiveConfig struct {
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
	Prefix       string
}

// S3PayloadArchive stores each payload as <prefix>/<external id>/<timestamp>.json.
// It is compatible with any S3-compatible storage (AWS S3, MinIO, RustFS, etc.)
type S3PayloadArchive struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// ArchiveOption is a functional option for configuring S3PayloadArchive
type ArchiveOption func(*S3PayloadArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) ArchiveOption {
	return func(a *S3PayloadArchive) { a.logger = logger }
}

// WithClock overrides the timestamp source used in object keys.
func WithClock(now func() time.Time) ArchiveOption {
	return func(a *S3PayloadArchive) { a.now = now }
}

// NewS3PayloadArchive creates an archive from configuration.
func NewS3PayloadArchive(ctx context.Context, cfg ArchiveConfig, opts ...ArchiveOption) (*S3PayloadArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("archive access key and secret key must be set together")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(withScheme(cfg.Endpoint))
		}
	})

	a := &S3PayloadArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func withScheme(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *S3PayloadArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads payload and returns its object key.
func (a *S3PayloadArchive) Store(ctx context.Context, externalID string, payload []byte) (string, error) {
	if externalID == "" {
		return "", errors.New("external id is required")
	}
	key := a.ObjectKey(externalID, a.now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"external-id": externalID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive payload %q: %w", externalID, err)
	}
	a.logger.Debug("Payload archived", zap.String("external_id", externalID), zap.String("key", key))
	return key, nil
}

// ObjectKey returns the key a payload received at t is stored under.
func (a *S3PayloadArchive) ObjectKey(externalID string, t time.Time) string {
	name := t.UTC().Format("20060102T150405.000000000Z") + ".json"
	parts := []string{safeSegment(externalID), name}
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return strings.Join(parts, "/")
}

// Bucket returns the bucket name
func (a *S3PayloadArchive) Bucket() string {
	return a.bucket
}

// safeSegment keeps an external id usable as a single key segment.
func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// NoopArchive discards payloads. Used when archiving is disabled.
type NoopArchive struct{}

// Store implements integration.PayloadArchive
func (NoopArchive) Store(context.Context, string, []byte) (string, error) {
	return "", nil
}
