package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/storage"
)

// handleFile streams stored video bytes back to the caller with the
// object's stored content type and exact length. Access control is
// entirely via object id secrecy.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "objectID")

	// Stat first so a missing object maps to 404 before any bytes move
	info, err := s.cfg.Storage.StatObject(r.Context(), objectID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("objectId", objectID).Msg("Failed to stat object")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	obj, err := s.cfg.Storage.GetObject(r.Context(), objectID)
	if err != nil {
		log.Error().Err(err).Str("objectId", objectID).Msg("Failed to open object stream")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))

	n, err := io.Copy(w, obj)
	if err != nil {
		// Headers are already out; nothing to do but log
		log.Debug().Err(err).Str("objectId", objectID).Int64("sent", n).Msg("File relay interrupted")
	}
	RecordRelayedBytes(n)
}
