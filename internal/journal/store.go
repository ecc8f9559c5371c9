package journal

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pbaille/devlog/internal/domain"
	"github.com/pbaille/devlog/internal/logging"
	"github.com/pbaille/devlog/internal/store"
)

// Persister loads and saves the whole collection. *store.Adapter implements it.
type Persister interface {
	Load(ctx context.Context) ([]domain.Entry, error)
	Save(ctx context.Context, entries []domain.Entry) error
}

// Status tells whether the last persistence round trip succeeded.
type Status string

const (
	StatusSynced   Status = "synced"
	StatusUnsynced Status = "unsynced"
)

// Listener receives a copy of the collection after each change.
type Listener func(entries []domain.Entry)

// Store holds the entry collection.
type Store struct {
	persister Persister
	log       logging.Logger
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	entries []domain.Entry
	version uint64
	status  Status
	cache   searchCache
	// unread is set while the slot could not be read at all. Saving then
	// would overwrite data this session never saw.
	unread bool

	subMu     sync.Mutex
	listeners map[uint64]Listener
	nextSub   uint64
}

type searchCache struct {
	version uint64
	query   string
	result  []domain.Entry
	valid   bool
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty Store. Call Initialize to load persisted entries.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		log:       logging.Nop(),
		now:       time.Now,
		newID:     uuid.NewString,
		status:    StatusSynced,
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize replaces the collection with the persisted one. Missing or
// unreadable data leaves the store empty. When the slot itself is unreachable
// nothing is saved until a later read succeeds.
func (s *Store) Initialize(ctx context.Context) {
	loaded, err := s.persister.Load(ctx)

	var de *store.DeserializationError
	s.mu.Lock()
	s.unread = false
	switch {
	case err == nil:
		s.entries = loaded
		s.status = StatusSynced
	case errors.Is(err, store.ErrAbsent):
		s.entries = nil
		s.status = StatusSynced
	case errors.As(err, &de):
		s.entries = nil
		s.status = StatusUnsynced
		s.log.Warn(ctx, "discarding persisted entries", "err", err, "kind", errorKind(err))
	default:
		s.entries = nil
		s.status = StatusUnsynced
		s.unread = true
		s.log.Warn(ctx, "storage unreadable, saves suspended", "err", err, "kind", errorKind(err))
	}
	s.version++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug(ctx, "journal initialized", "entries", len(snapshot))
	s.notify(snapshot)
}

// Create trims text and prepends a new entry. Blank text is ignored and
// reported with ok == false.
func (s *Store) Create(ctx context.Context, text string) (entry domain.Entry, ok bool) {
	text = strings.ToValidUTF8(strings.TrimSpace(text), "\uFFFD")
	if text == "" {
		return domain.Entry{}, false
	}

	s.mu.Lock()
	s.rereadLocked(ctx)
	entry = domain.Entry{
		ID:        s.newID(),
		Text:      text,
		CreatedAt: s.now().UnixMilli(),
	}
	next := make([]domain.Entry, 0, len(s.entries)+1)
	next = append(next, entry)
	s.entries = append(next, s.entries...)
	snapshot := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snapshot)
	return entry, true
}

// Delete removes the entry with the given id. Unknown ids are ignored and
// nothing is saved, unless persisted entries were just recovered.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	merged := s.rereadLocked(ctx)
	idx := s.indexLocked(id)
	if idx < 0 {
		if !merged {
			s.mu.Unlock()
			return false
		}
		snapshot := s.commitLocked(ctx)
		s.mu.Unlock()
		s.notify(snapshot)
		return false
	}
	next := make([]domain.Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	s.entries = append(next, s.entries[idx+1:]...)
	snapshot := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Clear removes every entry. Confirmation is the caller's job.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.rereadLocked(ctx)
	s.entries = nil
	snapshot := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snapshot)
}

// Search returns the entries whose text contains the trimmed query,
// ignoring case, in collection order. A blank query returns everything.
func (s *Store) Search(query string) []domain.Entry {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()

	if q == "" {
		return s.snapshotLocked()
	}
	if c := s.cache; c.valid && c.version == s.version && c.query == q {
		return clone(c.result)
	}

	var result []domain.Entry
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Text), q) {
			result = append(result, e)
		}
	}
	if result == nil {
		result = []domain.Entry{}
	}
	s.cache = searchCache{version: s.version, query: q, result: result, valid: true}
	return clone(result)
}

// Entries returns the full collection, newest first
func (s *Store) Entries() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get looks up a single entry
func (s *Store) Get(id string) (domain.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i], true
	}
	return domain.Entry{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Status reports whether the collection is known to be persisted.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe registers fn to be called after every change. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.listeners, id)
			s.subMu.Unlock()
		})
	}
}

// rereadLocked retries the initial load while the slot is unread. Persisted
// entries the session has not seen are appended after the session's own, so
// the next save keeps them. Reports whether the collection grew. Must hold s.mu.
func (s *Store) rereadLocked(ctx context.Context) bool {
	if !s.unread {
		return false
	}
	loaded, err := s.persister.Load(ctx)
	var de *store.DeserializationError
	switch {
	case err == nil:
	case errors.Is(err, store.ErrAbsent), errors.As(err, &de):
		loaded = nil
	default:
		return false
	}
	s.unread = false
	s.log.Info(ctx, "storage readable again", "persisted", len(loaded))

	seen := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		seen[e.ID] = struct{}{}
	}
	grew := false
	for _, e := range loaded {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		s.entries = append(s.entries, e)
		grew = true
	}
	return grew
}

// commitLocked bumps the version and saves. Must hold s.mu.
func (s *Store) commitLocked(ctx context.Context) []domain.Entry {
	s.version++
	snapshot := s.snapshotLocked()

	if s.unread {
		s.status = StatusUnsynced
		s.log.Warn(ctx, "storage unreadable, not saving", "entries", len(snapshot))
		return snapshot
	}
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.status = StatusUnsynced
		s.log.Warn(ctx, "save failed, keeping entries in memory", "err", err, "kind", errorKind(err), "entries", len(snapshot))
	} else {
		s.status = StatusSynced
	}
	return snapshot
}

func (s *Store) notify(snapshot []domain.Entry) {
	s.subMu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(clone(snapshot))
	}
}

func (s *Store) indexLocked(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []domain.Entry {
	return clone(s.entries)
}

func clone(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	copy(out, entries)
	return out
}

func errorKind(err error) string {
	var de *store.DeserializationError
	var se *store.StorageUnavailableError
	switch {
	case errors.As(err, &de):
		return "deserialization"
	case errors.As(err, &se):
		return "storage_unavailable"
	}
	return "unknown"
}
