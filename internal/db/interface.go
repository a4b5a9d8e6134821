package db

import (
	"context"
)

// KVStore is the persisted key/value store backing cached dashboard state.
// Values are opaque bytes; the store package layers typed, versioned access on top.
type KVStore interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// Get returns ErrNotFound when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)
	// Set fails with a quota error when the value would not fit
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Size returns the number of value bytes currently stored
	Size(ctx context.Context) (int64, error)
}
