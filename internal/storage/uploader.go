// Package storage stores listing photos in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Uploader stores binary content and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// MinioUploader implements Uploader on a MinIO/S3 bucket.
type MinioUploader struct {
	bucket string
	client *minio.Client
	logger *zap.Logger

	bucketOnce sync.Once
	bucketErr  error
}

// NewMinioUploader configures an uploader for the given endpoint and bucket.
func NewMinioUploader(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *zap.Logger) (*MinioUploader, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("storage: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}

	return &MinioUploader{bucket: bucket, client: client, logger: logger}, nil
}

// Upload stores the object and returns its URL.
func (u *MinioUploader) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("storage: object key is required")
	}
	if err := u.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, u.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: put object %q: %w", key, err)
	}

	objectURL := fmt.Sprintf("%s/%s/%s", u.client.EndpointURL(), u.bucket, key)
	u.logger.Debug("photo uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
	)
	return objectURL, nil
}

func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	u.bucketOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.bucketErr = fmt.Errorf("storage: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			u.bucketErr = fmt.Errorf("storage: create bucket: %w", err)
		}
	})
	return u.bucketErr
}

var _ Uploader = (*MinioUploader)(nil)
