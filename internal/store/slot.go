package store

import "context"

// Slot is a durable key-value backend. Get returns ErrAbsent for a missing key.
// Put replaces the whole value; readers never observe a partial write.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
