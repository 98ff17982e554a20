package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/config"
)

// MinioStorage implements ObjectStorage against any S3-compatible store
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage creates a new MinIO-backed object storage client
func NewMinioStorage(cfg *config.StorageConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Addr(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	log.Info().Str("bucket", s.bucket).Msg("Created storage bucket")
	return nil
}

// PresignedPutURL issues a time-limited credential-free upload URL so
// clients can push bytes directly to storage without routing them through
// this server.
func (s *MinioStorage) PresignedPutURL(ctx context.Context, objectID string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectID, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign put url: %w", err)
	}
	return u.String(), nil
}

// StatObject returns size and content type for a stored object.
// Returns ErrObjectNotFound when the object does not exist.
func (s *MinioStorage) StatObject(ctx context.Context, objectID string) (*ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectID, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &ObjectInfo{Size: info.Size, ContentType: contentType}, nil
}

// GetObject opens a byte stream for a stored object. The caller owns the
// returned reader and must close it.
func (s *MinioStorage) GetObject(ctx context.Context, objectID string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}
