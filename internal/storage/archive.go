// Package storage holds the optional export archive. When the environment
// does not configure a bucket the rest of the service keeps working and
// downloads are simply not archived.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrNotConfigured = errors.New("archive storage is not configured")

// ArchiveClient uploads generated exports (CSV, KML) to an S3-compatible
// bucket, typically Cloudflare R2.
type ArchiveClient struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
}

type archiveConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	PublicBaseURL string
}

// NewArchiveClientFromEnv builds the client from ARCHIVE_* environment
// variables. Missing required settings yield ErrNotConfigured, which callers
// treat as "feature off" rather than a startup failure.
func NewArchiveClientFromEnv() (*ArchiveClient, error) {
	cfg := archiveConfig{
		Endpoint:      strings.TrimSpace(os.Getenv("ARCHIVE_ENDPOINT")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARCHIVE_ACCESS_KEY_ID")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARCHIVE_SECRET_ACCESS_KEY")),
		Bucket:        strings.TrimSpace(os.Getenv("ARCHIVE_BUCKET")),
		Region:        strings.TrimSpace(os.Getenv("ARCHIVE_REGION")),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("ARCHIVE_PUBLIC_BASE_URL")), "/"),
	}

	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg := aws.Config{
		Region:                      cfg.Region,
		Credentials:                 credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		EndpointResolverWithOptions: resolver,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &ArchiveClient{
		client:        client,
		bucket:        cfg.Bucket,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

// Upload puts one export object and returns its public URL. A nil receiver
// reports ErrNotConfigured so callers can hold an optional client without
// guarding every call site.
func (a *ArchiveClient) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if a == nil || a.client == nil {
		return "", ErrNotConfigured
	}
	if size <= 0 {
		return "", fmt.Errorf("empty object")
	}
	input := &s3.PutObjectInput{
		Bucket:        &a.bucket,
		Key:           &key,
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}
	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("archive upload failed: %w", err)
	}
	return a.objectURL(key), nil
}

func (a *ArchiveClient) objectURL(key string) string {
	trimmedKey := strings.TrimLeft(key, "/")
	if a.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", a.publicBaseURL, a.bucket, trimmedKey)
	}
	return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, trimmedKey)
}
