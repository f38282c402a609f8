package model

import (
	"context"
	"io"
	"time"
)

// KeyValueStore is the key-addressed persistence behind client-local state.
// Get reports found=false for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ObjectStorage stores uploaded blobs such as profile photos.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
