package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"minicdn/internal/config"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("object not found")
	// ErrIsDirectory is returned when a key names a directory instead of a file.
	ErrIsDirectory = errors.New("key is a directory")
	// ErrCreateDirectory is returned when the parent directory of a key cannot be created.
	ErrCreateDirectory = errors.New("creating the directory failed")
	// ErrInvalidKey is returned for keys escaping the storage root.
	ErrInvalidKey = errors.New("invalid key")
)

// Provider defines the interface for the different storage implementations.
// Keys are slash separated and relative to the upload root, e.g. "pics/a.png".
type Provider interface {
	// Name identifies the provider in logs and health output
	Name() string

	// Upload stores everything read from r under key, replacing any existing
	// object. Nothing is stored when reading r fails.
	Upload(ctx context.Context, key string, r io.Reader) (int64, error)

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error

	// Stream serves the object to w, honouring conditional and range headers
	// where the backend allows it
	Stream(ctx context.Context, key string, w http.ResponseWriter, r *http.Request) error

	// Close cleans up any resources
	Close() error
}

// NewProvider creates a storage provider based on configuration
func NewProvider(ctx context.Context, cfg config.StorageConfig) (Provider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalStorage(cfg.LocalPath)
	case "gcs":
		return NewGCSStorage(ctx, cfg.ProjectID, cfg.BucketName)
	case "s3":
		return NewS3Storage(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// sniffLimit matches the amount of data mimetype inspects by default.
const sniffLimit = 3072

// sniffContentType detects the content type from the head of r and returns a
// reader yielding the complete stream again.
func sniffContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]

	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}
