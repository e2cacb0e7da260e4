package port

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is durable string-keyed storage for JSON payloads.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Update atomically replaces the value under key with fn's result.
	// current is nil when the key does not exist yet.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) ([]byte, error)
}
