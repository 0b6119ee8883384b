package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"minicdn/internal/config"
)

// Empty keys name the bucket root and must be rejected before any client
// call, so zero value providers are enough here.
func TestObjectStores_RootKey(t *testing.T) {
	ctx := context.Background()
	providers := []Provider{
		&GCSStorageProvider{},
		&S3StorageProvider{},
	}

	for _, p := range providers {
		t.Run(p.Name(), func(t *testing.T) {
			n, err := p.Upload(ctx, "", strings.NewReader("data"))
			assert.ErrorIs(t, err, ErrIsDirectory)
			assert.Zero(t, n)

			assert.ErrorIs(t, p.Delete(ctx, ""), ErrIsDirectory)

			rec := httptest.NewRecorder()
			err = p.Stream(ctx, "", rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Zero(t, rec.Body.Len())
		})
	}
}

func TestObjectStores_Names(t *testing.T) {
	assert.Equal(t, "gcs", (&GCSStorageProvider{}).Name())
	assert.Equal(t, "s3", (&S3StorageProvider{}).Name())
	assert.NoError(t, (&S3StorageProvider{}).Close())
}

func TestIsNoSuchKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "missing key", err: minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, want: true},
		{name: "head not found", err: minio.ErrorResponse{Code: "NotFound", StatusCode: http.StatusNotFound}, want: true},
		{name: "access denied", err: minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}},
		{name: "missing bucket", err: minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}},
		{name: "plain error", err: errors.New("connection refused")},
		{name: "code only in message", err: fmt.Errorf("stat: %w", errors.New("NoSuchKey"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNoSuchKey(tt.err))
		})
	}
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(context.Background(), configFor("ftp"))
	assert.ErrorContains(t, err, "unsupported storage provider")
}

func TestNewS3Storage_InvalidEndpoint(t *testing.T) {
	_, err := NewS3Storage(context.Background(), "https://s3.example.com/bucket", "a", "b", "bucket")
	assert.ErrorContains(t, err, "invalid S3 endpoint")
}

func configFor(provider string) config.StorageConfig {
	return config.StorageConfig{Provider: provider}
}
