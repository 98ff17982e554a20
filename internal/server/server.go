package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/ai"
	"github.com/user/replay-coach/internal/analysis"
	"github.com/user/replay-coach/internal/auth"
	"github.com/user/replay-coach/internal/indexing"
	"github.com/user/replay-coach/internal/storage"
	"github.com/user/replay-coach/internal/store"
	"github.com/user/replay-coach/internal/thumbnail"
	"github.com/user/replay-coach/internal/upload"
)

// Config wires the server's collaborators
type Config struct {
	Store       store.Store
	Storage     storage.ObjectStorage
	Streamer    ai.Streamer
	Upload      *upload.Service
	Indexing    *indexing.Service
	Analysis    *analysis.Service
	Thumbnail   *thumbnail.Service
	Verifier    *auth.Verifier
	BaseURL     string
	Temperature float64
}

// Server handles all HTTP requests
type Server struct {
	cfg       Config
	router    *chi.Mux
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// The object id is an unguessable capability token, so the file relay
	// performs no per-caller authorization check.
	s.router.Get("/api/file/{objectID}", s.handleFile)

	s.router.Group(func(r chi.Router) {
		r.Use(s.cfg.Verifier.Middleware)

		r.Post("/api/videos", s.handleCreateUpload)
		r.Get("/api/videos", s.handleListVideos)
		r.Post("/api/videos/{objectID}/index", s.handleIndex)
		r.Post("/api/videos/{objectID}/analyze", s.handleAnalyze)
		r.Post("/api/videos/{objectID}/thumbnail", s.handleThumbnail)
		r.Post("/api/chat/{objectID}", s.handleChat)
		r.Get("/api/scores", s.handleScores)
	})
}

// Handler returns the root handler (for testing purposes)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: chat and file responses are long-lived streams
		IdleTimeout: 60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// handleHealth returns JSON with status, database connectivity, and uptime
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.cfg.Store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	status := "healthy"
	if dbStatus != "healthy" {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
