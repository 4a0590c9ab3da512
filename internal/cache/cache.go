package cache

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("cache entry not found")

// Cache is a flat string key/value store. Keys may contain '/'.
type Cache interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
