package uploader

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// multipartOverhead is the slack allowed on top of the upload limit for
// boundaries and part headers.
const multipartOverhead = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type deleteResponse struct {
	Message string `json:"message"`
}

// HandleUpload handles POST /upload?directory=<dir>. Only the first field of
// the multipart form is read and stored.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxSize()+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		log.Debug().
			Err(err).
			Str("content_type", r.Header.Get("Content-Type")).
			Msg("request is not a multipart form")
		HandleError(w, ErrMissingField)
		return
	}

	part, err := reader.NextPart()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			HandleError(w, ErrPayloadTooLarge(h.service.MaxSize()))
			return
		}
		log.Debug().
			Err(err).
			Msg("no multipart field in request")
		HandleError(w, ErrMissingField)
		return
	}
	defer part.Close()

	uploadReq := &UploadRequest{
		Directory: r.URL.Query().Get("directory"),
		Filename:  part.FileName(),
		Body:      part,
	}

	response, err := h.service.Upload(r.Context(), uploadReq)
	if err != nil {
		h.handleUploadError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, response)
}

func (h *Handler) handleUploadError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.With().
		Err(err).
		Str("directory", r.URL.Query().Get("directory")).
		Logger()

	switch {
	case errors.Is(err, ErrInvalidPath):
		logger.Warn().Msg("rejected upload path")
		HandleError(w, ErrBadUploadPath)
	case errors.Is(err, ErrFileTooLarge):
		logger.Warn().Int64("limit", h.service.MaxSize()).Msg("upload too large")
		HandleError(w, ErrPayloadTooLarge(h.service.MaxSize()))
	case errors.Is(err, ErrImproperBytes):
		logger.Warn().Msg("failed to read upload body")
		HandleError(w, ErrImproperBody)
	case errors.Is(err, ErrCreateDirectory):
		logger.Error().Msg("failed to create upload directory")
		HandleError(w, ErrDirectoryFailed)
	default:
		logger.Error().Msg("failed to store upload")
		HandleError(w, ErrWriteFailure)
	}
}

// HandleDelete handles DELETE /delete/<path...>
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	// chi routes on the raw path when it carries escapes like %2F
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(path)
		if err != nil {
			HandleError(w, ErrBadDeletePath)
			return
		}
		path = unescaped
	}

	err := h.service.Delete(r.Context(), path)
	switch {
	case err == nil:
		sendJSON(w, http.StatusOK, deleteResponse{Message: "File successfully deleted"})
	case errors.Is(err, ErrInvalidPath):
		log.Warn().Err(err).Str("path", path).Msg("rejected delete path")
		HandleError(w, ErrBadDeletePath)
	case errors.Is(err, ErrNotFound):
		log.Debug().Str("path", path).Msg("delete target not found")
		HandleError(w, ErrFileNotFound)
	default:
		log.Error().Err(err).Str("path", path).Msg("failed to delete file")
		HandleError(w, ErrDeleteFailure)
	}
}
