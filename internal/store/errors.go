package store

import (
	"errors"
	"fmt"
)

var (
	// ErrAbsent is returned by Slot.Get and Adapter.Load when nothing has been stored yet.
	ErrAbsent = errors.New("no stored value")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// DeserializationError reports a stored value that is not a valid entry collection.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// StorageUnavailableError reports a slot that could not be read or written.
type StorageUnavailableError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("%s %q: storage unavailable: %v", e.Op, e.Key, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }
