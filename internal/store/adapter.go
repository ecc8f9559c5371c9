package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pbaille/devlog/internal/domain"
)

// DefaultKey is the slot key the journal is stored under.
const DefaultKey = "devlog:entries"

// Adapter persists the whole entry collection under a single slot key.
type Adapter struct {
	slot Slot
	key  string
}

// NewAdapter creates an Adapter over slot. An empty key means DefaultKey.
func NewAdapter(slot Slot, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{slot: slot, key: key}
}

// Key returns the slot key in use
func (a *Adapter) Key() string {
	return a.key
}

// Load reads and decodes the stored collection.
// It returns ErrAbsent when the slot is empty, *DeserializationError for a
// malformed value and *StorageUnavailableError when the slot cannot be read.
func (a *Adapter) Load(ctx context.Context) ([]domain.Entry, error) {
	raw, err := a.slot.Get(ctx, a.key)
	if errors.Is(err, ErrAbsent) {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, &StorageUnavailableError{Op: "load", Key: a.key, Err: err}
	}

	entries, err := Decode(raw)
	if err != nil {
		return nil, &DeserializationError{Key: a.key, Err: err}
	}
	return entries, nil
}

// Save encodes entries and overwrites the slot.
func (a *Adapter) Save(ctx context.Context, entries []domain.Entry) error {
	raw, err := Encode(entries)
	if err != nil {
		return &StorageUnavailableError{Op: "save", Key: a.key, Err: err}
	}
	if err := a.slot.Put(ctx, a.key, raw); err != nil {
		return &StorageUnavailableError{Op: "save", Key: a.key, Err: err}
	}
	return nil
}

// Close releases the underlying slot
func (a *Adapter) Close() error {
	return a.slot.Close()
}

// Encode serializes entries as a JSON array. A nil collection encodes as [].
func Encode(entries []domain.Entry) ([]byte, error) {
	if entries == nil {
		entries = []domain.Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return b, nil
}

// Decode parses a stored JSON array of entries. JSON null is an empty
// collection. Records need a non-empty id and text, and ids must be unique.
func Decode(raw []byte) ([]domain.Entry, error) {
	var entries []domain.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal entries: %w", err)
	}

	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d: missing id", i)
		}
		if e.Text == "" {
			return nil, fmt.Errorf("entry %d: missing text", i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("entry %d: duplicate id %s", i, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}
