package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"minicdn/internal/auth"
	"minicdn/internal/config"
	"minicdn/internal/logger"
	"minicdn/internal/server"
	"minicdn/internal/storage"
	"minicdn/internal/uploader"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("minicdn %s\n", formatVersionInfo())
		return
	}

	// Initialize logger first
	env := os.Getenv("APP_ENV")
	switch env {
	case "local", "development":
		logger.Init("development") // Debug Level
	default:
		logger.Init("production") // Info Level
	}

	log.Info().
		Str("environment", env).
		Str("log_level", zerolog.GlobalLevel().String()).
		Str("version", version).
		Str("commit", commit).
		Str("built", date).
		Msg("Starting minicdn")

	// Create a base context for the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}

	// Update logger with correct environment
	logger.Init(cfg.Env)
	cfg.Log()

	provider, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing storage provider")
		}
	}()

	authorizer, err := auth.New(cfg.AuthMode, cfg.AuthToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	if cfg.AuthToken == "" {
		log.Warn().Msg("AUTH_TOKEN is not set, uploads and deletes will fail")
	}

	// Sweep temp files of uploads interrupted by a crash
	if cleaner, ok := provider.(uploader.TempFileCleaner); ok {
		worker := uploader.NewCleanupWorker(cleaner, 10*time.Minute, time.Hour)
		worker.Start(ctx)
		defer worker.Stop()
	}

	srv := server.NewServer(cfg, provider, authorizer)

	// Start HTTP server
	httpServer, err := srv.Start()
	if err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)

		select {
		case <-shutdown:
			log.Info().Msg("Shutdown signal received")
		case <-ctx.Done():
			return
		}

		// Create a timeout context for graceful shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Disable keep-alives for new connections
		httpServer.SetKeepAlivesEnabled(false)

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}()

	log.Info().
		Str("url", cfg.BaseURL).
		Msg("Server is ready to handle requests")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("HTTP server error")
		cancel()
	}

	// Wait until in-flight requests are drained
	<-done
	log.Info().Msg("Server shutdown completed")
}

func formatVersionInfo() string {
	return fmt.Sprintf(`Version: %s
Commit: %s
Built: %s`, version, commit, date)
}
