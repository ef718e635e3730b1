package storage

import (
	"fmt"

	"github.com/xason0/ultraxas-go/internal/config"
)

// NewStorage creates S3 storage. Returns nil when no bucket is configured so
// callers can treat remote offload as an optional feature.
func NewStorage(cfg *config.S3Config) (StorageInterface, error) {
	if cfg.BucketName == "" {
		return nil, nil
	}

	storage, err := NewS3Storage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage: %w", err)
	}

	return storage, nil
}
