// Package blob uploads audio blobs to durable object storage.
package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	config "github.com/echonotes/backend/config/notes"
)

type S3 struct {
	client *s3.Client
	cfg    config.BlobConfig
	log    *slog.Logger
}

// IsConfigured reports whether the blob settings point at a real
// bucket rather than an unset or scaffold placeholder value.
func IsConfigured(cfg config.BlobConfig) bool {
	for _, v := range []string{cfg.Region, cfg.Bucket, cfg.AccessKeyID, cfg.AccessKeySecret} {
		if v == "" || strings.Contains(v, "placeholder") {
			return false
		}
	}
	return true
}

// New builds an S3-backed blob store. Returns nil without error when
// the config is not usable; callers treat a nil store as "upload skipped".
func New(ctx context.Context, cfg config.BlobConfig, log *slog.Logger) (*S3, error) {
	if !IsConfigured(cfg) {
		log.Warn("blob storage not configured, audio uploads will be skipped")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	log.Info("blob storage configured",
		slog.String("region", cfg.Region),
		slog.String("bucket", cfg.Bucket))

	return &S3{
		client: s3.NewFromConfig(awsCfg),
		cfg:    cfg,
		log:    log,
	}, nil
}

func (b *S3) Configured() bool {
	return b != nil && b.client != nil
}

// Put uploads one object and returns its public URL.
func (b *S3) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if !b.Configured() {
		return "", fmt.Errorf("blob storage is not configured")
	}

	if prefix := strings.Trim(b.cfg.KeyPrefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	return b.publicURL(key), nil
}

func (b *S3) publicURL(key string) string {
	if base := strings.TrimRight(b.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.cfg.Bucket, b.cfg.Region, key)
}
