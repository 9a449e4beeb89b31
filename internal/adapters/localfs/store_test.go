package localfs_test

import (
	"context"
	"errors"
	"testing"

	"listings_pipeline/internal/adapters/localfs"
	"listings_pipeline/internal/domain"
)

func TestStore_UploadDownloadDelete(t *testing.T) {
	s := localfs.New(t.TempDir())
	ctx := context.Background()

	if err := s.Upload(ctx, "out", "nested/a.csv", "text/csv", []byte("x,y\n1,2")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Download(ctx, "out", "nested/a.csv")
	if err != nil || string(got) != "x,y\n1,2" {
		t.Fatalf("download: %q %v", got, err)
	}
	if err := s.Delete(ctx, "out", "nested/a.csv"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Download(ctx, "out", "nested/a.csv"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "out", "nested/a.csv"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	s := localfs.New(t.TempDir())
	if err := s.Upload(context.Background(), "out", "../../etc/x", "text/csv", nil); err == nil {
		t.Fatal("expected error for path escaping the root")
	}
	if _, err := s.Download(context.Background(), "", "a.csv"); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
