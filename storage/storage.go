// Package storage keeps run artifacts such as screenshots on the local disk
// or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrFileNotFound is returned when a requested artifact does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned when a path is empty, absolute or escapes
	// the storage root.
	ErrInvalidPath = errors.New("invalid path")

	// ErrUnsupportedType is returned by New for unknown storage types.
	ErrUnsupportedType = errors.New("unsupported storage type")
)

// BlobStorage stores artifacts under slash-separated relative paths.
type BlobStorage interface {
	// Upload stores the reader's content at path.
	Upload(ctx context.Context, path string, r io.Reader, contentType string) error

	// Download opens the artifact at path.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the artifact at path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an artifact is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetURL returns a URL a report viewer can open: a file:// URL for
	// local storage, a presigned URL for S3.
	GetURL(ctx context.Context, path string) (string, error)
}

// Config selects and configures a BlobStorage.
type Config struct {
	Type string // local or s3

	LocalDir string

	Bucket        string
	Region        string
	Endpoint      string // S3-compatible endpoint, e.g. MinIO
	Prefix        string
	PathStyle     bool
	PresignExpiry time.Duration
}

// New creates the BlobStorage described by cfg.
func New(ctx context.Context, cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("%w: local storage needs a directory", ErrInvalidPath)
		}
		return NewLocalStorage(cfg.LocalDir)

	case "s3":
		s, err := NewS3Storage(ctx, S3Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			Prefix:        cfg.Prefix,
			PathStyle:     cfg.PathStyle,
			PresignExpiry: cfg.PresignExpiry,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

// cleanKey validates a relative artifact path and returns it in canonical
// slash form.
func cleanKey(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: absolute paths not allowed", ErrInvalidPath)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidPath)
	}
	return clean, nil
}
