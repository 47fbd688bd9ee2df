// Package kv provides the key-value persistence used by the collection, the
// album lists and the stored credentials.
package kv

import (
	"context"
)

// Store is a byte-valued key-value store. Get reports whether the key was
// present. Deleting a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
