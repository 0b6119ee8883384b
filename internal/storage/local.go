package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TempPrefix marks files staged by an upload in progress. Such names are
// never served and keys must not use it.
const TempPrefix = ".upload-"

type LocalStorageProvider struct {
	baseDir string
}

// NewLocalStorage creates the upload root if needed. An existing directory is fine.
func NewLocalStorage(baseDir string) (*LocalStorageProvider, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalStorageProvider{
		baseDir: baseDir,
	}, nil
}

func (l *LocalStorageProvider) Name() string {
	return "local"
}

// Upload writes into a temp file next to the target and renames it into place
// once the whole body has been copied.
func (l *LocalStorageProvider) Upload(ctx context.Context, key string, file io.Reader) (int64, error) {
	fullPath, err := l.path(key)
	if err != nil {
		return 0, err
	}
	if fullPath == filepath.Clean(l.baseDir) {
		return 0, ErrIsDirectory
	}
	if strings.HasPrefix(filepath.Base(fullPath), TempPrefix) {
		return 0, ErrInvalidKey
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}

	tmpPath := filepath.Join(dir, TempPrefix+uuid.NewString()+".tmp")
	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, file)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = os.Rename(tmpPath, fullPath)
	}
	if err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Error().
				Err(rmErr).
				Str("path", tmpPath).
				Msg("failed to remove temporary upload")
		}
		return written, fmt.Errorf("failed to write file: %w", err)
	}

	return written, nil
}

// Delete removes a regular file. Directories are never removed.
func (l *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}

	info, err := os.Lstat(fullPath)
	if err != nil {
		if isNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return ErrIsDirectory
	}

	if err := os.Remove(fullPath); err != nil {
		if isNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorageProvider) Stream(ctx context.Context, key string, w http.ResponseWriter, r *http.Request) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(fullPath), TempPrefix) {
		return ErrNotFound
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if isNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	if fileInfo.IsDir() {
		return ErrNotFound
	}

	w.Header().Set("Cache-Control", "public, max-age=86400") // 24 hours cache
	http.ServeContent(w, r, fileInfo.Name(), fileInfo.ModTime(), file)
	return nil
}

// CleanupTempFiles removes staged uploads older than olderThan, e.g. left
// behind when the process died mid upload.
func (l *LocalStorageProvider) CleanupTempFiles(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(l.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), TempPrefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if isNotExist(err) {
				return nil
			}
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil && !isNotExist(err) {
			log.Error().
				Err(err).
				Str("path", path).
				Msg("failed to remove stale temp file")
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("error walking directory: %w", err)
	}

	return removed, nil
}

func (l *LocalStorageProvider) Close() error {
	return nil
}

// path maps a slash separated key below the base directory.
func (l *LocalStorageProvider) path(key string) (string, error) {
	base := filepath.Clean(l.baseDir)
	fullPath := filepath.Join(base, filepath.FromSlash(key))

	rel, err := filepath.Rel(base, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return fullPath, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
