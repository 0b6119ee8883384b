package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"minicdn/internal/auth"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if s.config.Env == "development" {
		r.Use(middleware.NoCache)
	}

	// CORS configuration, authorization is a bearer header so no credentials
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Range"},
		MaxAge:         300,
	}))

	// Stored files, static assets and the 404 page
	r.NotFound(s.handleFiles)
	r.MethodNotAllowed(s.handleFiles)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/", s.handleHome)
		r.Get("/health", s.healthHandler)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		if s.config.RateLimit > 0 {
			r.Use(RateLimit(s.config.RateLimit))
		}
		r.Use(auth.Middleware(s.authorizer))

		r.Post("/upload", s.fileHandler.HandleUpload)
		r.Delete("/delete/*", s.fileHandler.HandleDelete)
	})

	return r
}
