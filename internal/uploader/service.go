package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"minicdn/internal/config"
	"minicdn/internal/storage"
)

type Service struct {
	storage   storage.Provider
	generator *FilenameGenerator
	maxSize   int64
	baseURL   string
}

// NewService wires the upload pipeline. A nil generator uses a process
// seeded one.
func NewService(provider storage.Provider, cfg *config.Config, generator *FilenameGenerator) *Service {
	if generator == nil {
		generator = NewFilenameGenerator(nil)
	}

	return &Service{
		storage:   provider,
		generator: generator,
		maxSize:   cfg.UploadMaxSize,
		baseURL:   cfg.BaseURL,
	}
}

// UploadRequest represents file upload parameters
type UploadRequest struct {
	Directory string    // logical directory from the query string, may be empty
	Filename  string    // declared filename of the multipart field, may be empty
	Body      io.Reader // field payload
}

// UploadResponse is returned for every stored file.
type UploadResponse struct {
	FullURL  string `json:"full_url"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// MaxSize returns the upload limit in bytes.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload resolves the target of req and streams its body into storage.
// Reading more than MaxSize bytes aborts the write with ErrFileTooLarge.
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	start := time.Now()

	filename := req.Filename
	if filename == "" {
		filename = s.generator.Generate()
	}

	target, err := ResolveUpload(req.Directory, filename)
	if err != nil {
		return nil, err
	}

	body := newLimitedBody(req.Body, s.maxSize)
	written, err := s.storage.Upload(ctx, target.Key, body)
	if err != nil {
		// the body's own failure explains the error better than the provider's wrapping
		if body.err != nil {
			return nil, body.err
		}
		switch {
		case errors.Is(err, storage.ErrCreateDirectory):
			return nil, fmt.Errorf("%w: %w", ErrCreateDirectory, err)
		case errors.Is(err, storage.ErrInvalidKey), errors.Is(err, storage.ErrIsDirectory):
			return nil, ErrInvalidPath
		default:
			return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
	}

	log.Info().
		Str("key", target.Key).
		Str("provider", s.storage.Name()).
		Int64("size", written).
		Dur("duration", time.Since(start)).
		Msg("file uploaded")

	return &UploadResponse{
		FullURL:  s.baseURL + target.URLPath(),
		Filename: target.Filename,
		Path:     target.URLPath(),
	}, nil
}

// Delete removes the file stored under the slash separated path.
// Directories are never removed and count as not found.
func (s *Service) Delete(ctx context.Context, path string) error {
	key, err := ResolveKey(path)
	if err != nil {
		return err
	}
	if key == "" {
		return ErrNotFound
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrIsDirectory):
			return ErrNotFound
		case errors.Is(err, storage.ErrInvalidKey):
			return ErrInvalidPath
		default:
			return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
	}

	log.Info().
		Str("key", key).
		Str("provider", s.storage.Name()).
		Msg("file deleted")

	return nil
}

// limitedBody passes through at most limit bytes and remembers why reading
// stopped, so callers can tell client errors from storage errors.
type limitedBody struct {
	r         io.Reader
	remaining int64
	err       error
}

func newLimitedBody(r io.Reader, limit int64) *limitedBody {
	return &limitedBody{r: r, remaining: limit}
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}

	// allow one byte past the limit to detect oversized bodies
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}

	n, err := b.r.Read(p)
	if int64(n) > b.remaining {
		b.err = ErrFileTooLarge
		return 0, b.err
	}
	b.remaining -= int64(n)

	if err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			b.err = ErrFileTooLarge
		} else {
			b.err = fmt.Errorf("%w: %w", ErrImproperBytes, err)
		}
		return n, b.err
	}

	return n, err
}
