package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/domain"
)

// Store is the Cloud Storage backed domain.ObjectStore.
type Store struct{ c *storage.Client }

func New(ctx context.Context) (*Store, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &Store{c: c}, nil
}

func (s *Store) Close() error { return s.c.Close() }

func (s *Store) Download(ctx context.Context, bucket, name string) (b []byte, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("gcs", "download", err, time.Since(start)) }()

	r, err := s.c.Bucket(bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, name, err)
	}
	defer r.Close()

	b, err = io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, name, err)
	}
	return b, nil
}

func (s *Store) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("gcs", "upload", err, time.Since(start)) }()

	w := s.c.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", bucket, name, err)
	}
	// the object is only committed on Close
	if err = w.Close(); err != nil {
		return fmt.Errorf("commit gs://%s/%s: %w", bucket, name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, bucket, name string) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("gcs", "delete", err, time.Since(start)) }()

	err = s.c.Bucket(bucket).Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gs://%s/%s: %w", bucket, name, domain.ErrNotFound)
	}
	return err
}
