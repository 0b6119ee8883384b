package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minicdn/internal/auth"
	"minicdn/internal/config"
	"minicdn/internal/storage"
)

const testToken = "secret-token"

type testServer struct {
	handler   http.Handler
	uploadDir string
	staticDir string
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")
	staticDir := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(staticDir, 0755))

	provider, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:          8030,
		Env:           "production",
		BaseURL:       "https://cdn.example.com",
		UploadMaxSize: 1 << 20,
		StaticDir:     staticDir,
		RateLimit:     rateLimit,
	}
	srv := NewServer(cfg, provider, auth.NewTokenAuthorizer(testToken))

	return &testServer{
		handler:   srv.RegisterRoutes(),
		uploadDir: uploadDir,
		staticDir: staticDir,
	}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHomeHandler(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "https://cdn.example.com/upload")
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool       `json:"success"`
		Message string     `json:"message"`
		Data    HealthData `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Health check successful", resp.Message)
	assert.Equal(t, "up", resp.Data.Status)
	assert.Equal(t, "local", resp.Data.Storage)
	assert.Equal(t, "1.0 MB", resp.Data.MaxUpload)
}

func TestUploadThenServe(t *testing.T) {
	ts := newTestServer(t, 0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "hello.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload?directory=docs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded struct {
		FullURL string `json:"full_url"`
		Path    string `json:"path"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&uploaded))
	assert.Equal(t, "/docs/hello.txt", uploaded.Path)
	assert.Equal(t, "https://cdn.example.com/docs/hello.txt", uploaded.FullURL)

	rec = ts.do(httptest.NewRequest(http.MethodGet, uploaded.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())

	rec = ts.do(httptest.NewRequest(http.MethodHead, uploaded.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))

	req = httptest.NewRequest(http.MethodDelete, "/delete"+uploaded.Path, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec = ts.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, uploaded.Path, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticFallback(t *testing.T) {
	ts := newTestServer(t, 0)
	require.NoError(t, os.MkdirAll(filepath.Join(ts.staticDir, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ts.staticDir, "css", "site.css"), []byte("body{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(ts.staticDir, "shared.txt"), []byte("static"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(ts.uploadDir, "shared.txt"), []byte("uploaded"), 0644))

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/css/site.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	// uploads win over static assets
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/shared.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uploaded", rec.Body.String())

	// no directory listings
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/css/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "site.css")
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, 0)
	require.NoError(t, os.MkdirAll(filepath.Join(ts.uploadDir, "pics"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ts.uploadDir, "pics", ".upload-x.tmp"), []byte("partial"), 0644))

	for _, path := range []string{"/missing.png", "/pics", "/pics/", "/pics/.upload-x.tmp", "/pics/../../etc/passwd"} {
		rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "not found on the CDN", path)
	}

	rec := ts.do(httptest.NewRequest(http.MethodPut, "/missing.png", strings.NewReader("x")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// known route with another method falls back to file serving
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodDelete, "/delete/a.txt", nil)
	rec := ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/delete/a.txt", nil)
		req.RemoteAddr = "192.0.2.1:4321"
		req.Header.Set("Authorization", "Bearer wrong")
		rec := ts.do(req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "Too many requests")
		}
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)

	// read routes are not limited
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.1:4321"
		assert.Equal(t, http.StatusOK, ts.do(req).Code)
	}
}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }

func (brokenProvider) Upload(context.Context, string, io.Reader) (int64, error) {
	return 0, errors.New("disk on fire")
}

func (brokenProvider) Delete(context.Context, string) error {
	return errors.New("disk on fire")
}

func (brokenProvider) Stream(context.Context, string, http.ResponseWriter, *http.Request) error {
	return errors.New("disk on fire")
}

func (brokenProvider) Close() error { return nil }

func TestServeFailure(t *testing.T) {
	cfg := &config.Config{Env: "production", BaseURL: "http://localhost:8030", UploadMaxSize: 1024}
	srv := NewServer(cfg, brokenProvider{}, auth.NewTokenAuthorizer(testToken))

	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a.png", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to serve files: disk on fire"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodDelete, "/delete/a.png", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec = httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Something went wrong when deleting the file"}`, rec.Body.String())
}

func TestStart(t *testing.T) {
	ts := NewServer(&config.Config{Port: 9999, Env: "production"}, brokenProvider{}, auth.NewTokenAuthorizer(""))
	srv, err := ts.Start()
	require.NoError(t, err)
	assert.Equal(t, ":9999", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
