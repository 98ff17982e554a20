package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the requested object does not exist
// in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStorage defines the object store operations used by the service
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PresignedPutURL(ctx context.Context, objectID string, expiry time.Duration) (string, error)
	StatObject(ctx context.Context, objectID string) (*ObjectInfo, error)
	GetObject(ctx context.Context, objectID string) (io.ReadCloser, error)
}
