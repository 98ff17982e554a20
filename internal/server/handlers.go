package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/analysis"
	"github.com/user/replay-coach/internal/auth"
	"github.com/user/replay-coach/internal/store"
	"github.com/user/replay-coach/internal/upload"
)

type createUploadRequest struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// handleCreateUpload issues a presigned upload target for the caller
func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	var req createUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	target, err := s.cfg.Upload.CreateUploadURL(r.Context(), owner, req.Filename, req.Size)
	if err != nil {
		if errors.Is(err, upload.ErrFileTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum allowed size is 350MB.")
			return
		}
		log.Error().Err(err).Msg("Failed to issue upload URL")
		writeError(w, http.StatusInternalServerError, "failed to issue upload URL")
		return
	}

	RecordUpload()
	if count, err := s.cfg.Store.CountVideos(r.Context()); err == nil {
		UpdateVideoCount(count)
	}
	writeJSON(w, http.StatusCreated, target)
}

type videoItem struct {
	ObjectID    string    `json:"objectId"`
	Filename    string    `json:"filename"`
	CreatedAt   time.Time `json:"createdAt"`
	Indexed     bool      `json:"indexed"`
	HasAnalysis bool      `json:"hasAnalysis"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
}

// handleListVideos returns the caller's videos, newest first
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	videos, err := s.cfg.Store.ListVideos(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list videos")
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	items := make([]videoItem, 0, len(videos))
	for _, v := range videos {
		item := videoItem{
			ObjectID:    v.ObjectID,
			Filename:    v.OrigFilename,
			CreatedAt:   v.CreatedAt,
			Indexed:     v.Indexed(),
			HasAnalysis: v.Analysis != nil,
		}
		if v.Thumbnail != nil {
			item.Thumbnail = *v.Thumbnail
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, items)
}

type indexResponse struct {
	ExternalVideoID string `json:"externalVideoId"`
}

// handleIndex submits a stored video to the external service for indexing
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	objectID := chi.URLParam(r, "objectID")

	externalID, err := s.cfg.Indexing.Submit(r.Context(), owner, objectID)
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		log.Error().Err(err).Str("objectId", objectID).Msg("Indexing failed")
		writeError(w, http.StatusInternalServerError, "indexing failed")
		return
	}

	writeJSON(w, http.StatusOK, indexResponse{ExternalVideoID: externalID})
}

// handleAnalyze runs (or serves the cached) analysis for a video
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	objectID := chi.URLParam(r, "objectID")

	start := time.Now()
	result, err := s.cfg.Analysis.Analyze(r.Context(), owner, objectID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrVideoNotFound):
			writeError(w, http.StatusNotFound, "video not found")
		case errors.Is(err, analysis.ErrNotIndexed):
			// Retry-later signal, not a hard failure
			RecordAnalysis("not_ready", time.Since(start))
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": "analysis not ready, try again shortly",
				"retry": true,
			})
		default:
			RecordAnalysis("error", time.Since(start))
			log.Error().Err(err).Str("objectId", objectID).Msg("Analysis failed")
			writeError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	RecordAnalysis("ok", time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

type thumbnailResponse struct {
	Thumbnail string `json:"thumbnail"`
}

// handleThumbnail returns the cached or freshly extracted poster frame
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	objectID := chi.URLParam(r, "objectID")

	sourceURL := s.cfg.BaseURL + "/api/file/" + objectID
	dataURL, err := s.cfg.Thumbnail.Generate(r.Context(), owner, objectID, sourceURL)
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		log.Error().Err(err).Str("objectId", objectID).Msg("Thumbnail generation failed")
		writeError(w, http.StatusInternalServerError, "thumbnail generation failed")
		return
	}

	writeJSON(w, http.StatusOK, thumbnailResponse{Thumbnail: dataURL})
}

type scoreItem struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
}

// handleScores returns the caller's score history, oldest first
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	scores, err := s.cfg.Store.ListScores(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list scores")
		writeError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}

	items := make([]scoreItem, 0, len(scores))
	for _, sc := range scores {
		items = append(items, scoreItem{Timestamp: sc.Timestamp, Score: sc.Score})
	}

	writeJSON(w, http.StatusOK, items)
}
