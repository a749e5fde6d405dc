package storage

import (
	"bytes"
	"context"
	"fmt"

	"trialbridge/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOArchive implements Archiver using MinIO.
type MinIOArchive struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchive creates a MinIO-backed archive for the documents bucket.
func NewMinIOArchive(cfg config.MinIOConfig) (*MinIOArchive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOArchive{client: client, bucket: cfg.GetMinioBucketDocuments()}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (a *MinIOArchive) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}

	return nil
}

// Put uploads data under key.
func (a *MinIOArchive) Put(ctx context.Context, key, contentType string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Bucket returns the target bucket name.
func (a *MinIOArchive) Bucket() string {
	return a.bucket
}

var _ Archiver = (*MinIOArchive)(nil)
