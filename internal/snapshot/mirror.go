package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/muurk/wled-backup/internal/logging"
)

// DefaultRegion is used when no region is configured. Setting it up front
// stops minio-go from asking the server for the bucket location.
const DefaultRegion = "us-east-1"

// Mirror receives a copy of every backup file after it is published locally
type Mirror interface {
	Put(ctx context.Context, name string, payload []byte) error
}

// S3Options configures an S3Mirror
type S3Options struct {
	Endpoint  string // host[:port], no scheme
	Bucket    string
	Prefix    string // optional key prefix, e.g. "wled"
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool // use TLS
}

// S3Mirror uploads backup files to an S3-compatible bucket
type S3Mirror struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Mirror creates a mirror client. No request is made until Put.
func NewS3Mirror(opts S3Options) (*S3Mirror, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Mirror{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// Put uploads payload under <prefix>/<name>
func (m *S3Mirror) Put(ctx context.Context, name string, payload []byte) error {
	key := m.objectKey(name)

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", m.bucket, key, err)
	}

	logging.Debug("Mirrored backup file",
		zap.String("bucket", m.bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size),
	)
	return nil
}

func (m *S3Mirror) objectKey(name string) string {
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}
