package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmptySource   = errors.New("source file is empty")
	ErrMissingColumn = errors.New("missing required column")
)

type ObjectStore interface {
	Download(ctx context.Context, bucket, name string) ([]byte, error)
	Upload(ctx context.Context, bucket, name, contentType string, data []byte) error
	Delete(ctx context.Context, bucket, name string) error
}

type ListingWarehouse interface {
	// FindByMLS returns every stored row for the identifier, newest first.
	FindByMLS(ctx context.Context, mls string) ([]ListingRow, error)
	InsertListing(ctx context.Context, row ListingRow) error
}

// ClaimStore marks events as taken so a redelivered event is not processed twice.
type ClaimStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, routingKey string, v any) error
}
