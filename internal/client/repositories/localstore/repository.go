// Package localstore is the device-local key/value storage of the client.
// It is scoped to one device profile and never synced.
package localstore

import "context"

// Repository stores opaque byte values under string keys.
//
// Get returns (nil, nil) for an absent key. Remove is idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}
