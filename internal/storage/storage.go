// Package storage stores uploaded files on the local filesystem or on
// S3-compatible object storage (AWS S3, MinIO, R2).
package storage

import (
	"context"
	"fmt"
	"io"

	"recipeshop/internal/config"
)

// Disk is the file storage driver interface.
type Disk interface {
	// Put writes r to path, replacing any existing file.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for path.
	URL(path string) string
}

// New builds the disk selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Disk, error) {
	switch cfg.StorageDriver {
	case "local", "":
		return NewLocal(cfg.StorageLocalRoot, cfg.StorageURL)
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			BaseURL:  cfg.StorageURL,
		})
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.StorageDriver)
	}
}
