// Package journal owns the in-memory entry collection and keeps it mirrored
// to a persistence adapter.
//
// The Store is the only mutator of the collection. Entries are kept newest
// first by insertion. Every mutation saves the full collection and then
// notifies subscribers. Persistence failures are logged and reflected in
// Status, never returned: the in-memory collection stays authoritative for
// the running session.
//
//	s := journal.New(adapter, journal.WithLogger(log))
//	s.Initialize(ctx)
//	e, ok := s.Create(ctx, "Learned recursion")
//	hits := s.Search("recursion")
//	s.Delete(ctx, e.ID)
package journal
