package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Storage is a byte level key value store used to hold collection
// snapshots.
type Storage interface {
	Has(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
