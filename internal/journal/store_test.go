package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pbaille/devlog/internal/domain"
	"github.com/pbaille/devlog/internal/logging"
	"github.com/pbaille/devlog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePersister records saves and can be told to fail.
type fakePersister struct {
	loadValue []domain.Entry
	loadErr   error
	saveErr   error
	saves     [][]domain.Entry
}

func (f *fakePersister) Load(context.Context) ([]domain.Entry, error) {
	return f.loadValue, f.loadErr
}

func (f *fakePersister) Save(_ context.Context, entries []domain.Entry) error {
	f.saves = append(f.saves, entries)
	return f.saveErr
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s := New(p,
		WithIDGenerator(sequentialIDs()),
		WithClock(fixedClock(time.UnixMilli(1700000000000))),
	)
	s.Initialize(context.Background())
	return s
}

func texts(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestStore_Scenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewAdapter(store.NewMemorySlot(), ""))
	require.Empty(t, s.Entries())

	first, ok := s.Create(ctx, "Learned recursion")
	require.True(t, ok)
	assert.Equal(t, []string{"Learned recursion"}, texts(s.Entries()))

	_, ok = s.Create(ctx, "Fixed a bug")
	require.True(t, ok)
	assert.Equal(t, []string{"Fixed a bug", "Learned recursion"}, texts(s.Entries()))

	assert.Equal(t, []string{"Fixed a bug"}, texts(s.Search("bug")))

	require.True(t, s.Delete(ctx, first.ID))
	assert.Equal(t, []string{"Fixed a bug"}, texts(s.Entries()))

	s.Clear(ctx)
	assert.Empty(t, s.Entries())
	assert.Equal(t, StatusSynced, s.Status())
}

func TestStore_CreateTrimsAndPrepends(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{loadErr: store.ErrAbsent}
	s := newTestStore(t, p)

	for i, raw := range []string{"  one ", "\ttwo\n", "three"} {
		before := s.Len()
		e, ok := s.Create(ctx, raw)
		require.True(t, ok)

		all := s.Entries()
		require.Len(t, all, before+1)
		assert.Equal(t, e, all[0])
		assert.Equal(t, strings.TrimSpace(raw), all[0].Text)
		assert.Len(t, p.saves, i+1)
	}

	all := s.Entries()
	assert.Equal(t, "id-3", all[0].ID)
	assert.Equal(t, int64(1700000003000), all[0].CreatedAt)
	assert.Equal(t, int64(1700000001000), all[2].CreatedAt)
}

func TestStore_CreateBlankIsNoop(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{loadErr: store.ErrAbsent}
	s := newTestStore(t, p)
	s.Create(ctx, "keep")
	before := s.Entries()
	saves := len(p.saves)

	for _, raw := range []string{"", "   ", "\n\t "} {
		e, ok := s.Create(ctx, raw)
		assert.False(t, ok)
		assert.Equal(t, domain.Entry{}, e)
	}

	assert.Equal(t, before, s.Entries())
	assert.Len(t, p.saves, saves)
}

func TestStore_DeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{loadErr: store.ErrAbsent}
	s := newTestStore(t, p)
	s.Create(ctx, "a")
	s.Create(ctx, "b")
	before := s.Entries()
	saves := len(p.saves)

	assert.False(t, s.Delete(ctx, "nope"))
	assert.False(t, s.Delete(ctx, ""))

	assert.Equal(t, before, s.Entries())
	assert.Len(t, p.saves, saves)
}

func TestStore_DeleteRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})
	s.Create(ctx, "a")
	mid, _ := s.Create(ctx, "b")
	s.Create(ctx, "c")

	require.True(t, s.Delete(ctx, mid.ID))
	assert.Equal(t, []string{"c", "a"}, texts(s.Entries()))

	_, found := s.Get(mid.ID)
	assert.False(t, found)

	// deleting twice is idempotent
	assert.False(t, s.Delete(ctx, mid.ID))
	assert.Equal(t, 2, s.Len())
}

func TestStore_ClearAlwaysEmpties(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{loadErr: store.ErrAbsent}
	s := newTestStore(t, p)

	s.Clear(ctx)
	assert.Empty(t, s.Entries())

	s.Create(ctx, "a")
	s.Create(ctx, "b")
	s.Clear(ctx)
	assert.Empty(t, s.Entries())
	assert.Empty(t, p.saves[len(p.saves)-1])
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})
	for _, txt := range []string{"Go channels", "fixed BUG in parser", "lunch", "Debugging again"} {
		s.Create(ctx, txt)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Debugging again", "lunch", "fixed BUG in parser", "Go channels"}},
		{"   ", []string{"Debugging again", "lunch", "fixed BUG in parser", "Go channels"}},
		{"bug", []string{"Debugging again", "fixed BUG in parser"}},
		{"  BUG  ", []string{"Debugging again", "fixed BUG in parser"}},
		{"go", []string{"Go channels"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(s.Search(tt.query)))
		})
	}
}

func TestStore_SearchSeesNewEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})
	s.Create(ctx, "bug one")

	assert.Len(t, s.Search("bug"), 1)
	s.Create(ctx, "bug two")
	assert.Len(t, s.Search("bug"), 2)
	s.Clear(ctx)
	assert.Empty(t, s.Search("bug"))
}

func TestStore_ResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})
	s.Create(ctx, "original")

	all := s.Entries()
	all[0].Text = "mutated"
	hits := s.Search("orig")
	hits[0].Text = "mutated"

	assert.Equal(t, "original", s.Entries()[0].Text)
	assert.Equal(t, "original", s.Search("orig")[0].Text)
}

func TestStore_InitializeLoadsPersisted(t *testing.T) {
	ctx := context.Background()
	adapter := store.NewAdapter(store.NewMemorySlot(), "")
	require.NoError(t, adapter.Save(ctx, []domain.Entry{
		{ID: "b", Text: "second", CreatedAt: 2},
		{ID: "a", Text: "first", CreatedAt: 1},
	}))

	s := New(adapter)
	s.Initialize(ctx)

	assert.Equal(t, []string{"second", "first"}, texts(s.Entries()))
	assert.Equal(t, StatusSynced, s.Status())
}

func TestStore_InitializeDowngradesCorruption(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemorySlot()
	require.NoError(t, slot.Put(ctx, store.DefaultKey, []byte(`{"broken":`)))

	var buf bytes.Buffer
	log, err := logging.New(&buf, "debug")
	require.NoError(t, err)

	s := New(store.NewAdapter(slot, ""), WithLogger(log))
	s.Initialize(ctx)

	assert.Empty(t, s.Entries())
	assert.Equal(t, StatusUnsynced, s.Status())
	assert.Contains(t, buf.String(), "kind=deserialization")

	// the next successful save heals the slot
	s.Create(ctx, "fresh start")
	assert.Equal(t, StatusSynced, s.Status())
	got, err := store.NewAdapter(slot, "").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh start"}, texts(got))
}

func TestStore_SaveFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{
		loadErr: store.ErrAbsent,
		saveErr: &store.StorageUnavailableError{Op: "save", Key: "k", Err: errors.New("quota")},
	}

	var buf bytes.Buffer
	log, err := logging.New(&buf, "warn")
	require.NoError(t, err)

	s := New(p, WithLogger(log))
	s.Initialize(ctx)

	e, ok := s.Create(ctx, "still here")
	require.True(t, ok)
	assert.Equal(t, []domain.Entry{e}, s.Entries())
	assert.Equal(t, StatusUnsynced, s.Status())
	assert.Contains(t, buf.String(), "kind=storage_unavailable")

	require.True(t, s.Delete(ctx, e.ID))
	assert.Empty(t, s.Entries())

	p.saveErr = nil
	s.Create(ctx, "recovered")
	assert.Equal(t, StatusSynced, s.Status())
}

func TestStore_PersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemorySlot()

	s1 := New(store.NewAdapter(slot, ""))
	s1.Initialize(ctx)
	s1.Create(ctx, "Learned recursion")
	s1.Create(ctx, "Fixed a bug")

	s2 := New(store.NewAdapter(slot, ""))
	s2.Initialize(ctx)
	assert.Equal(t, s1.Entries(), s2.Entries())
}

func TestStore_CreateRepairsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemorySlot()

	s1 := New(store.NewAdapter(slot, ""))
	s1.Initialize(ctx)
	e, ok := s1.Create(ctx, "bad \xff byte")
	require.True(t, ok)
	assert.True(t, utf8.ValidString(e.Text))
	assert.Equal(t, "bad \uFFFD byte", e.Text)

	s2 := New(store.NewAdapter(slot, ""))
	s2.Initialize(ctx)
	assert.Equal(t, s1.Entries(), s2.Entries())
	assert.Equal(t, StatusSynced, s2.Status())
}

func TestStore_UnreadableSlotIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	persisted := []domain.Entry{{ID: "old-1", Text: "from last week", CreatedAt: 1}}
	p := &fakePersister{
		loadErr: &store.StorageUnavailableError{Op: "load", Key: "k", Err: errors.New("connection refused")},
	}

	var buf bytes.Buffer
	log, err := logging.New(&buf, "warn")
	require.NoError(t, err)

	s := New(p, WithLogger(log), WithIDGenerator(sequentialIDs()))
	s.Initialize(ctx)
	assert.Equal(t, StatusUnsynced, s.Status())

	_, ok := s.Create(ctx, "offline note")
	require.True(t, ok)
	assert.Empty(t, p.saves, "nothing may be saved before the slot was read")
	assert.Equal(t, StatusUnsynced, s.Status())
	assert.Equal(t, []string{"offline note"}, texts(s.Entries()))
	assert.Contains(t, buf.String(), "not saving")

	// the slot comes back: persisted entries are kept behind the session's own
	p.loadErr = nil
	p.loadValue = persisted
	_, ok = s.Create(ctx, "back online")
	require.True(t, ok)
	assert.Equal(t, []string{"back online", "offline note", "from last week"}, texts(s.Entries()))
	require.Len(t, p.saves, 1)
	assert.Equal(t, s.Entries(), p.saves[0])
	assert.Equal(t, StatusSynced, s.Status())
}

func TestStore_UnreadableSlotRecoveredByDelete(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{
		loadErr: &store.StorageUnavailableError{Op: "load", Key: "k", Err: errors.New("timeout")},
	}
	s := newTestStore(t, p)

	p.loadErr = nil
	p.loadValue = []domain.Entry{{ID: "old-1", Text: "kept", CreatedAt: 1}}
	assert.False(t, s.Delete(ctx, "missing"))
	assert.Equal(t, []string{"kept"}, texts(s.Entries()))
	require.Len(t, p.saves, 1)

	require.True(t, s.Delete(ctx, "old-1"))
	assert.Empty(t, s.Entries())
	assert.Len(t, p.saves, 2)
}

func TestStore_ClearWhileUnreadableSavesNothing(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{
		loadErr: &store.StorageUnavailableError{Op: "load", Key: "k", Err: errors.New("timeout")},
	}
	s := newTestStore(t, p)
	s.Clear(ctx)
	assert.Empty(t, p.saves)
	assert.Equal(t, StatusUnsynced, s.Status())
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})

	var seen [][]string
	cancel := s.Subscribe(func(entries []domain.Entry) {
		seen = append(seen, texts(entries))
	})

	e, _ := s.Create(ctx, "a")
	s.Create(ctx, "   ") // no change, no notification
	s.Create(ctx, "b")
	s.Delete(ctx, "missing") // no change, no notification
	s.Delete(ctx, e.ID)
	s.Clear(ctx)

	assert.Equal(t, [][]string{
		{"a"},
		{"b", "a"},
		{"b"},
		{},
	}, seen)

	cancel()
	cancel()
	s.Create(ctx, "after cancel")
	assert.Len(t, seen, 4)
}

func TestStore_SubscribersRunInOrder(t *testing.T) {
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})

	var order []int
	for i := 0; i < 5; i++ {
		s.Subscribe(func([]domain.Entry) { order = append(order, i) })
	}
	s.Create(context.Background(), "x")

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestStore_ListenerMayCallStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakePersister{loadErr: store.ErrAbsent})

	var lens []int
	s.Subscribe(func([]domain.Entry) { lens = append(lens, s.Len()) })
	s.Create(ctx, "x")

	assert.Equal(t, []int{1}, lens)
}
