package kv

import "context"

// Store is the string key-value primitive the career data lives in.
// Implementations give no transactional guarantees across keys.
type Store interface {
	// Get returns the value for key. ok is false when the key is unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	RemoveMany(ctx context.Context, keys ...string) error
}
