package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/model"
	"github.com/user/replay-coach/internal/storage"
	"github.com/user/replay-coach/internal/store"
)

const (
	// MaxFileSize is the declared-size ceiling for uploads
	MaxFileSize = 350 * 1024 * 1024

	// PresignExpiry is how long an issued upload URL stays valid
	PresignExpiry = 5 * time.Minute
)

// ErrFileTooLarge is returned when the declared size exceeds MaxFileSize
var ErrFileTooLarge = errors.New("file too large")

// Target is an issued upload destination
type Target struct {
	ObjectID string `json:"objectId"`
	URL      string `json:"url"`
}

// Service issues presigned upload targets and records pending video rows
type Service struct {
	store   store.Store
	storage storage.ObjectStorage
}

// NewService creates a new upload coordinator
func NewService(store store.Store, objStorage storage.ObjectStorage) *Service {
	return &Service{store: store, storage: objStorage}
}

// NewObjectID generates an object identifier from two random UUIDs plus the
// original file extension. The concatenation makes the id infeasible to
// guess, which is what lets the file endpoint serve it without per-request
// authorization.
func NewObjectID(filename string) string {
	return uuid.NewString() + "-" + uuid.NewString() + filepath.Ext(filename)
}

// CreateUploadURL verifies the declared size, issues a short-lived presigned
// PUT URL and inserts the pending video row for the caller. The size check
// runs before any storage call. The declared size is never verified against
// the bytes eventually uploaded.
func (s *Service) CreateUploadURL(ctx context.Context, owner, filename string, size int64) (*Target, error) {
	if size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	objectID := NewObjectID(filename)

	url, err := s.storage.PresignedPutURL(ctx, objectID, PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to issue upload url: %w", err)
	}

	video := &model.Video{
		ObjectID:     objectID,
		OrigFilename: filename,
		Owner:        owner,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to record video: %w", err)
	}

	log.Info().
		Str("objectId", objectID).
		Str("owner", owner).
		Int64("declaredSize", size).
		Msg("Issued upload URL")

	return &Target{ObjectID: objectID, URL: url}, nil
}
