package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
)

// GCSStorage keeps objects in a single Cloud Storage bucket.
type GCSStorage struct {
	Bucket string
	client *storage.Client
}

func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStorage{Bucket: bucket, client: client}, nil
}

func (s *GCSStorage) object(key string) (*storage.ObjectHandle, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(s.Bucket).Object(cleaned), nil
}

func (s *GCSStorage) Save(ctx context.Context, key string, r io.Reader, limit int64) (int64, error) {
	obj, err := s.object(key)
	if err != nil {
		return 0, err
	}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(writeCtx)
	n, err := limitedCopy(w, r, limit)
	if err != nil {
		// cancelling before Close discards the partial upload
		cancel()
		w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("gcs write gs://%s/%s: %w", s.Bucket, key, err)
	}

	return n, nil
}

func (s *GCSStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.object(key)
	if err != nil {
		return nil, err
	}

	r, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}

	err = obj.Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// Fetch streams the object into a temp file keeping its extension, which
// the parsers dispatch on.
func (s *GCSStorage) Fetch(ctx context.Context, key string) (string, func(), error) {
	noop := func() {}

	r, err := s.Open(ctx, key)
	if err != nil {
		return "", noop, err
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "legalreview-*"+path.Ext(key))
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("download gs://%s/%s: %w", s.Bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, err
	}

	return tmp.Name(), cleanup, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}
