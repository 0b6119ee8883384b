package uploader

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidPath     = errors.New("invalid directory or filename")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrImproperBytes   = errors.New("improper bytes sent")
	ErrCreateDirectory = errors.New("creating the directory failed")
	ErrWriteFailed     = errors.New("writing to storage failed")
	ErrNotFound        = errors.New("file not found")
	ErrDeleteFailed    = errors.New("deleting the file failed")
)

// APIError is the JSON body of every failed upload or delete request.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Error responses
var (
	ErrMissingField = &APIError{
		Status:  http.StatusBadRequest,
		Message: "Missing image field in the multipart form",
	}
	ErrBadUploadPath = &APIError{
		Status:  http.StatusBadRequest,
		Message: "Invalid directory or filename",
	}
	ErrBadDeletePath = &APIError{
		Status:  http.StatusBadRequest,
		Message: "Invalid file path",
	}
	ErrImproperBody = &APIError{
		Status:  http.StatusBadRequest,
		Message: "Improper bytes sent",
	}
	ErrDirectoryFailed = &APIError{
		Status:  http.StatusInternalServerError,
		Message: "Creating the directory failed",
	}
	ErrWriteFailure = &APIError{
		Status:  http.StatusInternalServerError,
		Message: "Writing to file system failed",
	}
	ErrFileNotFound = &APIError{
		Status:  http.StatusNotFound,
		Message: "The requested file was not found on the CDN",
	}
	ErrDeleteFailure = &APIError{
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong when deleting the file",
	}
)

// ErrPayloadTooLarge builds the 413 response for the configured limit.
func ErrPayloadTooLarge(limit int64) *APIError {
	return &APIError{
		Status: http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("File exceeds the maximum upload size of %d bytes (%s)",
			limit, humanize.Bytes(uint64(limit))),
	}
}

// HandleError sends a standardized error response
func HandleError(w http.ResponseWriter, apiErr *APIError) {
	sendJSON(w, apiErr.Status, apiErr)
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().
			Err(err).
			Msg("failed to encode response")
	}
}
