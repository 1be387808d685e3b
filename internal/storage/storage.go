package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/landmarks/backend/internal/config"
)

// ImageStore is the blob store behind landmark photos. Object names are
// generated by the caller and treated as opaque filenames.
type ImageStore interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

func New(cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinIOStore(cfg)
	case "local":
		return NewLocalStore(cfg.LocalRoot)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
