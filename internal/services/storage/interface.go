package storage

import (
	"context"
	"io"
	"time"
)

// StorageInterface defines the common interface for artifact storage backends
type StorageInterface interface {
	BucketName() string
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
