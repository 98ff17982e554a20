package indexing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/ai"
	"github.com/user/replay-coach/internal/storage"
	"github.com/user/replay-coach/internal/store"
)

// Service resubmits stored videos to the external video-AI service for
// indexing. The service cannot ingest a storage URL directly, so the bytes
// are staged through a local scratch file.
type Service struct {
	store   store.Store
	storage storage.ObjectStorage
	ai      ai.Indexer
}

// NewService creates a new indexing trigger
func NewService(store store.Store, objStorage storage.ObjectStorage, indexer ai.Indexer) *Service {
	return &Service{store: store, storage: objStorage, ai: indexer}
}

// Submit stages the stored object to disk, submits it for indexing, and
// records the returned external video identifier on the video row. The
// scratch file is removed on every exit path; a removal failure is logged
// and never surfaced.
func (s *Service) Submit(ctx context.Context, owner, objectID string) (string, error) {
	video, err := s.store.GetVideo(ctx, objectID, owner)
	if err != nil {
		return "", fmt.Errorf("failed to look up video: %w", err)
	}
	if video == nil {
		return "", store.ErrVideoNotFound
	}

	obj, err := s.storage.GetObject(ctx, objectID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch object: %w", err)
	}
	defer obj.Close()

	scratchPath := filepath.Join(os.TempDir(), "stage-"+objectID)
	defer func() {
		if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).Str("path", scratchPath).Msg("Failed to clean up scratch file")
		}
	}()

	if err := stageToFile(obj, scratchPath); err != nil {
		return "", fmt.Errorf("failed to stage object: %w", err)
	}

	externalID, err := s.ai.CreateTask(ctx, scratchPath)
	if err != nil {
		return "", fmt.Errorf("failed to submit for indexing: %w", err)
	}

	if err := s.store.SetExternalID(ctx, objectID, externalID); err != nil {
		return "", fmt.Errorf("failed to record external id: %w", err)
	}

	log.Info().
		Str("objectId", objectID).
		Str("externalId", externalID).
		Msg("Video submitted for indexing")

	return externalID, nil
}

func stageToFile(r io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write scratch file: %w", err)
	}

	return f.Close()
}
