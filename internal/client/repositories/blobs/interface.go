// Package blobs implements the unconstrained key/value store that holds
// session ciphertext. Values have no practical size bound.
//
// Backends: bbolt (local file, the default), Redis, and S3-compatible object
// storage. All of them report an absent key as ok=false with a nil error,
// and treat removal of an absent key as success.
package blobs

import "context"

// Repository is a string-valued key/value store.
type Repository interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
