package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"minicdn/cmd/web/pages"
	"minicdn/internal/storage"
	"minicdn/internal/uploader"
)

// Page Handlers
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	templ.Handler(pages.HomePage(s.config.BaseURL)).ServeHTTP(w, r)
}

// API Handlers
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := HealthData{
		Status:    "up",
		Storage:   s.storage.Name(),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		MaxUpload: humanize.Bytes(uint64(s.config.UploadMaxSize)),
	}
	s.sendJSON(w, http.StatusOK, true, "Health check successful", health)
}

// handleFiles serves GET and HEAD requests for paths without a route: first
// from the storage provider, then from the static directory.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.handleError404(w, r)
		return
	}

	key, err := uploader.ResolveKey(r.URL.Path)
	if err != nil || key == "" {
		s.handleError404(w, r)
		return
	}

	err = s.storage.Stream(r.Context(), key, w, r)
	switch {
	case err == nil:
		return
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidKey):
	default:
		log.Error().
			Err(err).
			Str("key", key).
			Str("storage", s.storage.Name()).
			Msg("failed to serve file")
		uploader.HandleError(w, &uploader.APIError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Failed to serve files: %v", err),
		})
		return
	}

	if s.serveStatic(w, r, "/"+key) {
		return
	}
	s.handleError404(w, r)
}

// serveStatic serves a regular file below the static directory. Directories
// are never listed.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request, name string) bool {
	if s.config.StaticDir == "" {
		return false
	}

	f, err := http.Dir(s.config.StaticDir).Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

// Error Handlers
func (s *Server) handleError404(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := pages.Error404().Render(r.Context(), w); err != nil {
		log.Error().Err(err).Msg("Error rendering 404 page")
	}
}
