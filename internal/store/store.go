package store

import (
	"context"
	"errors"

	"github.com/user/replay-coach/internal/model"
)

// ErrVideoNotFound is returned by callers of Store when a video does not
// exist or is not owned by the requesting user. The two cases are not
// distinguished so the API cannot leak which object ids exist.
var ErrVideoNotFound = errors.New("video not found")

// Store defines the interface for data persistence operations
type Store interface {
	// Video operations
	CreateVideo(ctx context.Context, video *model.Video) error
	GetVideo(ctx context.Context, objectID, owner string) (*model.Video, error)
	ListVideos(ctx context.Context, owner string) ([]*model.Video, error)
	SetExternalID(ctx context.Context, objectID, externalID string) error
	SetThumbnail(ctx context.Context, objectID, thumbnail string) error
	SetAnalysis(ctx context.Context, objectID string, analysis []byte) (bool, error)
	CountVideos(ctx context.Context) (int64, error)

	// Score operations
	RecordScore(ctx context.Context, score *model.ScoreEvent) error
	ListScores(ctx context.Context, owner string) ([]*model.ScoreEvent, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
