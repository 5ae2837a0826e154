package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"villarent/internal/app/apperr"
	"villarent/internal/app/policies"
)

// Client stores villa photos in an S3-compatible bucket.
type Client struct {
	bucket         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

type Options struct {
	Endpoint      string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	cleanEndpoint := strings.TrimSpace(opts.Endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = cleanEndpoint
	}
	return &Client{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Upload stores the content and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if len(data) == 0 {
		return "", errors.New("s3: content is empty")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	publicURL := c.objectURL(key)
	if c.logger != nil {
		c.logger.Info("s3 upload completed", "bucket", c.bucket, "key", key, "size", len(data))
	}
	return publicURL, nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return nil
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	return err
}

var ErrNotConfigured = apperr.Wrap(apperr.KindServiceUnavailable, errors.New("s3: uploader is not configured"))

// NoopStore fails uploads fast when S3 is not configured.
type NoopStore struct{}

func (NoopStore) Upload(context.Context, string, []byte, string) (string, error) {
	return "", ErrNotConfigured
}

func (NoopStore) Remove(context.Context, string) error { return nil }

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := c.allowPublicRead(ctx); err != nil {
			c.bucketInitErr = err
		}
	})
	return c.bucketInitErr
}

func (c *Client) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.bucket)
	if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func (c *Client) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, strings.TrimLeft(key, "/"))
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ policies.ImageStore = (*Client)(nil)
var _ policies.ImageStore = NoopStore{}
