// Package storage keeps catalog artwork (uploaded originals and rendered thumbnails).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when an object key does not exist.
var ErrNotFound = errors.New("object not found")

// Storage is the object store used for catalog artwork.
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}

// Config selects and configures the backend. An empty Bucket selects local storage.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string

	LocalPath string
	LocalURL  string
}

// New builds S3 storage when a bucket is configured, local disk storage otherwise.
func New(cfg Config) (Storage, error) {
	if cfg.Bucket != "" {
		return NewS3Storage(cfg)
	}
	return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
}
