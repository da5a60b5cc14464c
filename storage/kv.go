// Package storage provides the key-value stores that hold cart snapshots.
package storage

import "context"

// SnapshotStore is a byte-oriented key-value store
type SnapshotStore interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for absent keys
	Delete(ctx context.Context, key string) error
	Close() error
}
