package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"minicdn/internal/auth"
	"minicdn/internal/config"
	"minicdn/internal/storage"
	"minicdn/internal/uploader"
)

// Server represents the HTTP server and its dependencies
type Server struct {
	config      *config.Config
	storage     storage.Provider
	authorizer  auth.Authorizer
	fileHandler *uploader.Handler
	startedAt   time.Time
}

// NewServer creates a new server instance serving and storing files through
// provider. Write routes are guarded by authorizer.
func NewServer(config *config.Config, provider storage.Provider, authorizer auth.Authorizer) *Server {
	fileService := uploader.NewService(provider, config, nil)

	return &Server{
		config:      config,
		storage:     provider,
		authorizer:  authorizer,
		fileHandler: uploader.NewHandler(fileService),
		startedAt:   time.Now(),
	}
}

// Start builds the HTTP server. Read and write timeouts are generous since
// request bodies and responses may be large files.
func (s *Server) Start() (*http.Server, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
	}

	log.Info().
		Int("port", s.config.Port).
		Str("env", s.config.Env).
		Str("storage", s.storage.Name()).
		Msg("Starting server")

	return srv, nil
}

// sendJSON sends a JSON response with consistent formatting
func (s *Server) sendJSON(w http.ResponseWriter, status int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: success,
		Message: message,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Error encoding JSON response")
	}
}
