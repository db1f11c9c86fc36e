// Package archive uploads CSV report snapshots to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/config"
)

// Uploader stores a named object. Satisfied by Exporter; kept small so
// services can be tested without S3.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, body []byte) (string, error)
}

// Exporter uploads report snapshots to an S3 bucket.
type Exporter struct {
	client *s3.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewExporter creates a new Exporter. A custom endpoint (MinIO etc.)
// switches the client to path-style addressing.
func NewExporter(ctx context.Context, cfg config.ArchiveConfig, logger zerolog.Logger) (*Exporter, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Exporter{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With().Str("component", "archive").Logger(),
	}, nil
}

// Upload stores the body under prefix/key and returns the object key.
func (e *Exporter) Upload(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	objectKey := key
	if e.prefix != "" {
		objectKey = e.prefix + "/" + key
	}

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive object: %w", err)
	}

	e.logger.Info().
		Str("bucket", e.bucket).
		Str("key", objectKey).
		Int("size", len(body)).
		Msg("archive object uploaded")

	return objectKey, nil
}

// Ensure Exporter implements Uploader.
var _ Uploader = (*Exporter)(nil)
