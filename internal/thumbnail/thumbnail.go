package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/store"
)

// Timeout bounds the frame extraction subprocess
const Timeout = 30 * time.Second

// Service extracts a poster frame from a video via ffmpeg and caches it on
// the video row as a PNG data URL.
type Service struct {
	store   store.Store
	timeout time.Duration
}

// NewService creates a new thumbnail service
func NewService(st store.Store) *Service {
	return &Service{store: st, timeout: Timeout}
}

// Generate returns the thumbnail data URL for a video, computing and
// caching it on first use. The sourceURL must be a location ffmpeg can
// read the video bytes from.
func (s *Service) Generate(ctx context.Context, owner, objectID, sourceURL string) (string, error) {
	video, err := s.store.GetVideo(ctx, objectID, owner)
	if err != nil {
		return "", fmt.Errorf("failed to look up video: %w", err)
	}
	if video == nil {
		return "", store.ErrVideoNotFound
	}

	if video.Thumbnail != nil && *video.Thumbnail != "" {
		return *video.Thumbnail, nil
	}

	dataURL, err := s.extractFrame(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	if err := s.store.SetThumbnail(ctx, objectID, dataURL); err != nil {
		return "", fmt.Errorf("failed to cache thumbnail: %w", err)
	}

	log.Info().Str("objectId", objectID).Int("bytes", len(dataURL)).Msg("Thumbnail generated")
	return dataURL, nil
}

// extractFrame grabs an early frame from the video to use as a thumbnail
func (s *Service) extractFrame(ctx context.Context, sourceURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", sourceURL,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-y", "-")

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("no thumbnail data generated, video may be invalid or inaccessible")
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(out.Bytes()), nil
}
