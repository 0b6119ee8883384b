package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	gcstorage "cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type GCSStorageProvider struct {
	client     *gcstorage.Client
	bucket     *gcstorage.BucketHandle
	bucketName string
}

func NewGCSStorage(ctx context.Context, projectID, bucketName string) (*GCSStorageProvider, error) {
	var client *gcstorage.Client
	var err error

	if emulatorHost := os.Getenv("STORAGE_EMULATOR_HOST"); emulatorHost != "" {
		log.Debug().
			Str("emulator_host", emulatorHost).
			Msg("using GCS emulator")
		client, err = gcstorage.NewClient(
			ctx,
			option.WithEndpoint(fmt.Sprintf("http://%s/storage/v1/", emulatorHost)),
			option.WithoutAuthentication(),
		)
	} else if creds := os.Getenv("GOOGLE_CLOUD_CREDENTIALS"); creds != "" {
		decodedCreds, decodeErr := base64.StdEncoding.DecodeString(creds)
		if decodeErr != nil {
			return nil, fmt.Errorf("invalid base64 credentials: %w", decodeErr)
		}
		client, err = gcstorage.NewClient(ctx, option.WithCredentialsJSON(decodedCreds))
	} else {
		client, err = gcstorage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bucket := client.Bucket(bucketName)

	_, err = bucket.Attrs(ctx)
	if errors.Is(err, gcstorage.ErrBucketNotExist) {
		log.Info().
			Str("bucket", bucketName).
			Msg("bucket does not exist, creating...")
		if err := bucket.Create(ctx, projectID, &gcstorage.BucketAttrs{
			Location: "US-CENTRAL1",
		}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info().
			Str("bucket", bucketName).
			Msg("successfully created bucket")
	} else if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	return &GCSStorageProvider{
		client:     client,
		bucket:     bucket,
		bucketName: bucketName,
	}, nil
}

func (g *GCSStorageProvider) Name() string {
	return "gcs"
}

// Upload streams r into the object. A failed read cancels the writer's
// context so the partial object is never committed.
func (g *GCSStorageProvider) Upload(ctx context.Context, key string, file io.Reader) (int64, error) {
	if key == "" {
		return 0, ErrIsDirectory
	}

	contentType, body, err := sniffContentType(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := g.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	written, err := io.Copy(writer, body)
	if err != nil {
		cancel()
		_ = writer.Close()
		return written, fmt.Errorf("failed to copy file to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return written, fmt.Errorf("failed to close writer: %w", err)
	}

	return written, nil
}

func (g *GCSStorageProvider) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrIsDirectory
	}
	if err := g.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (g *GCSStorageProvider) Stream(ctx context.Context, key string, w http.ResponseWriter, r *http.Request) error {
	if key == "" {
		return ErrNotFound
	}

	obj := g.bucket.Object(key)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return ErrNotFound
		}
		log.Error().
			Err(err).
			Str("key", key).
			Msg("failed to get object attributes")
		return fmt.Errorf("failed to get object attributes: %w", err)
	}

	log.Debug().
		Str("key", key).
		Str("content_type", attrs.ContentType).
		Int64("size", attrs.Size).
		Msg("retrieved object attributes")

	w.Header().Set("Content-Type", attrs.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(attrs.Size, 10))
	w.Header().Set("Last-Modified", attrs.Updated.UTC().Format(http.TimeFormat))
	if attrs.CacheControl != "" {
		w.Header().Set("Cache-Control", attrs.CacheControl)
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Close()

	bytesWritten, err := io.Copy(w, reader)
	if err != nil {
		// headers are already sent, the caller can only log this
		log.Error().
			Err(err).
			Str("key", key).
			Int64("bytes_written", bytesWritten).
			Msg("failed to stream file")
		return nil
	}

	log.Debug().
		Str("key", key).
		Int64("bytes_written", bytesWritten).
		Msg("file streamed successfully")

	return nil
}

func (g *GCSStorageProvider) Close() error {
	return g.client.Close()
}
