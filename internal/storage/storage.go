// Package storage keeps uploaded documents and evaluation artifacts. Keys are
// slash separated and relative; each backend maps them onto its own
// namespace.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"legalreview/core"
)

var (
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrNotFound     = errors.New("object not found")
	ErrInvalidKey   = errors.New("invalid storage key")
)

type Storage interface {
	// Save copies r into key, refusing objects larger than limit bytes. A
	// non-positive limit disables the check. It returns the bytes written.
	Save(ctx context.Context, key string, r io.Reader, limit int64) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key; a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// Fetch makes the object available as a local file and returns its path
	// and a cleanup func that must always be called.
	Fetch(ctx context.Context, key string) (string, func(), error)
}

// New picks the backend configured by STORAGE_BACKEND.
func New(ctx context.Context, cfg *core.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "gcs":
		return NewGCSStorage(ctx, cfg.GCSBucket)
	case "local", "":
		return NewLocalStorage(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// DocumentKey is where an uploaded document lives.
func DocumentKey(projectID, documentID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s_%s", projectID, documentID, path.Base(strings.ReplaceAll(filename, "\\", "/")))
}

// EvaluationLabelsKey is where the labels behind an evaluation are kept.
func EvaluationLabelsKey(projectID, evaluationID uuid.UUID) string {
	return fmt.Sprintf("evaluations/%s/%s.json", projectID, evaluationID)
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// limitedCopy copies src into dst and fails with ErrFileTooLarge once more
// than limit bytes were seen.
func limitedCopy(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	if limit <= 0 {
		return io.Copy(dst, src)
	}

	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, ErrFileTooLarge
	}
	return n, nil
}
