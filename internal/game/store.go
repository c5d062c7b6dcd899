package game

import "sync/atomic"

// snapshotPair is the immutable (previous, current) view swapped by Store.
type snapshotPair struct {
	prev *Snapshot
	cur  *Snapshot
}

// Store holds the latest two snapshots.
// Publish is called from the presenter goroutine only; readers on any goroutine
// see a consistent pair because the whole pair is swapped atomically.
type Store struct {
	pair     atomic.Pointer[snapshotPair]
	received atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	s.pair.Store(&snapshotPair{})
	return s
}

// Publish shifts current into previous and stores snap as current.
// Last writer wins; there is no dedup or ordering check.
func (s *Store) Publish(snap *Snapshot) (prev *Snapshot) {
	old := s.pair.Load()
	s.pair.Store(&snapshotPair{prev: old.cur, cur: snap})
	s.received.Add(1)
	return old.cur
}

// Current returns the latest snapshot, or nil if none was ever published.
func (s *Store) Current() *Snapshot {
	return s.pair.Load().cur
}

// Previous returns the snapshot that preceded Current, or nil.
func (s *Store) Previous() *Snapshot {
	return s.pair.Load().prev
}

// Pair returns (previous, current) from a single consistent load.
func (s *Store) Pair() (prev, cur *Snapshot) {
	p := s.pair.Load()
	return p.prev, p.cur
}

// Published returns how many snapshots have been stored.
func (s *Store) Published() uint64 {
	return s.received.Load()
}
