package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a slot backend.
type Options struct {
	Backend   string
	DBPath    string // sqlite
	Dir       string // file
	RedisAddr string // redis
	Key       string
}

// OpenSlot creates the slot named by opts.Backend.
func OpenSlot(ctx context.Context, opts Options) (Slot, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		return NewSQLiteSlot(ctx, opts.DBPath)
	case BackendFile:
		return NewFileSlot(opts.Dir)
	case BackendRedis:
		return NewRedisSlot(opts.RedisAddr), nil
	case BackendMemory:
		return NewMemorySlot(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}

// Open creates the configured slot and wraps it in an Adapter.
func Open(ctx context.Context, opts Options) (*Adapter, error) {
	slot, err := OpenSlot(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewAdapter(slot, opts.Key), nil
}
