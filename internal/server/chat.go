package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/auth"
)

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// handleChat relays one streamed prompt/response exchange between the
// caller and the AI service, forwarding text fragments as they arrive.
// Nothing is buffered beyond a single fragment and nothing is persisted.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	objectID := chi.URLParam(r, "objectID")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	video, err := s.cfg.Store.GetVideo(r.Context(), objectID, owner)
	if err != nil {
		log.Error().Err(err).Str("objectId", objectID).Msg("Failed to look up video for chat")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if video == nil || !video.Indexed() {
		http.Error(w, "Video not found or access denied.", http.StatusNotFound)
		return
	}

	stream, err := s.cfg.Streamer.AnalyzeStream(r.Context(), *video.ExternalID, req.Prompt, s.cfg.Temperature)
	if err != nil {
		log.Error().Err(err).Str("objectId", objectID).Msg("Failed to open chat stream")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, _ := w.(http.Flusher)

	for {
		event, err := stream.Recv()
		if err != nil {
			// The response may be partially written; a caller disconnect
			// lands here too via the request context.
			log.Error().Err(err).Str("objectId", objectID).Msg("Chat stream aborted")
			return
		}
		if event.End() {
			return
		}
		if event.Text == "" {
			continue
		}

		if _, err := io.WriteString(w, event.Text); err != nil {
			log.Debug().Err(err).Str("objectId", objectID).Msg("Client went away during chat stream")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
