package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/domain"
)

// Store maps buckets to directories under Root. Used for local runs and the
// end-to-end tests in place of Cloud Storage.
type Store struct{ Root string }

func New(root string) *Store { return &Store{Root: root} }

func (s *Store) path(bucket, name string) (string, error) {
	if bucket == "" || name == "" {
		return "", errors.New("bucket and object name are required")
	}
	p := filepath.Join(s.Root, bucket, filepath.FromSlash(name))
	if !strings.HasPrefix(p, filepath.Clean(s.Root)+string(filepath.Separator)) {
		return "", fmt.Errorf("object %q escapes storage root", bucket+"/"+name)
	}
	return p, nil
}

func (s *Store) Download(ctx context.Context, bucket, name string) (b []byte, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("localfs", "download", err, time.Since(start)) }()

	p, err := s.path(bucket, name)
	if err != nil {
		return nil, err
	}
	b, err = os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, name, domain.ErrNotFound)
	}
	return b, err
}

func (s *Store) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("localfs", "upload", err, time.Since(start)) }()

	p, err := s.path(bucket, name)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	// write then rename so readers never see a partial file
	tmp := p + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *Store) Delete(ctx context.Context, bucket, name string) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("localfs", "delete", err, time.Since(start)) }()

	p, err := s.path(bucket, name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s/%s: %w", bucket, name, domain.ErrNotFound)
	}
	return err
}
