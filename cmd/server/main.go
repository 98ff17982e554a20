package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/replay-coach/internal/ai"
	"github.com/user/replay-coach/internal/analysis"
	"github.com/user/replay-coach/internal/auth"
	"github.com/user/replay-coach/internal/config"
	"github.com/user/replay-coach/internal/indexing"
	"github.com/user/replay-coach/internal/server"
	"github.com/user/replay-coach/internal/storage"
	"github.com/user/replay-coach/internal/store"
	"github.com/user/replay-coach/internal/thumbnail"
	"github.com/user/replay-coach/internal/upload"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Initialize structured JSON logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.WarnMissing()

	log.Info().Msg("Configuration loaded successfully")

	// Initialize MySQL store
	mysqlStore, err := store.NewMySQLStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	// Initialize object storage
	objStorage, err := storage.NewMinioStorage(&cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object storage client")
	}
	log.Info().Msg("Object storage client initialized")

	// Initialize video-AI client
	aiClient := ai.NewClient(&cfg.AI)
	log.Info().Msg("AI client initialized")

	// Initialize domain services
	uploadService := upload.NewService(mysqlStore, objStorage)
	indexingService := indexing.NewService(mysqlStore, objStorage, aiClient)
	analysisService := analysis.NewService(mysqlStore, aiClient, cfg.AI.Temperature)
	thumbnailService := thumbnail.NewService(mysqlStore)
	log.Info().Msg("Services initialized")

	// Initialize HTTP server
	httpServer := server.NewServer(server.Config{
		Store:       mysqlStore,
		Storage:     objStorage,
		Streamer:    aiClient,
		Upload:      uploadService,
		Indexing:    indexingService,
		Analysis:    analysisService,
		Thumbnail:   thumbnailService,
		Verifier:    auth.NewVerifier(cfg.Auth.JWTSecret),
		BaseURL:     cfg.Server.BaseURL,
		Temperature: cfg.AI.Temperature,
	})

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in goroutine
	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	log.Info().Msg("Replay Coach started successfully")

	// Wait for shutdown signal
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop accepting requests; in-flight chat and file streams get the
	//    shutdown window to finish
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 2. Close database connection pool
	if err := mysqlStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}

	log.Info().Msg("Graceful shutdown completed")
}
