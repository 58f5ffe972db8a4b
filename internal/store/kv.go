package store

import (
	"context"
)

// Entry is a single key and its encoded value.
type Entry struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// KV is a generic key-value store keyed by string.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetMany stores all entries as a single atomic unit.
	SetMany(ctx context.Context, entries []Entry) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// RemovePrefix deletes every key starting with prefix and returns how many were removed.
	RemovePrefix(ctx context.Context, prefix string) (int, error)

	// ListKeys returns every key starting with prefix in ascending order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
