package report

import "sync"

// LRUStore is an in-memory store that keeps the most recent runs and
// evicts the least recently used once it is full.
type LRUStore struct {
	mu  sync.Mutex
	cap int

	// Doubly-linked list for LRU ordering (most recent at head).
	head, tail *lruEntry
	items      map[string]*lruEntry
}

type lruEntry struct {
	key    string
	record *RunRecord
	prev   *lruEntry
	next   *lruEntry
}

// NewLRUStore creates a store holding at most cap records.
// Capacity must be >= 1.
func NewLRUStore(cap int) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		items: make(map[string]*lruEntry, cap),
	}
}

// Save inserts or updates a record, evicting the least recently used
// entry when the store is full.
func (s *LRUStore) Save(record *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[record.ID]; ok {
		e.record = record
		s.moveToFront(e)
		return nil
	}
	e := &lruEntry{key: record.ID, record: record}
	s.items[record.ID] = e
	s.pushFront(e)
	if len(s.items) > s.cap {
		s.evict()
	}
	return nil
}

// Load returns the record for runID, promoting it to most recent.
// A missing ID returns ErrNotFound.
func (s *LRUStore) Load(runID string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[runID]
	if !ok {
		return nil, ErrNotFound
	}
	s.moveToFront(e)
	return e.record, nil
}

func (s *LRUStore) pushFront(e *lruEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *LRUStore) moveToFront(e *lruEntry) {
	if s.head == e {
		return
	}
	// Unlink.
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if s.tail == e {
		s.tail = e.prev
	}
	s.pushFront(e)
}

func (s *LRUStore) evict() {
	e := s.tail
	if e == nil {
		return
	}
	if e.prev != nil {
		e.prev.next = nil
	}
	s.tail = e.prev
	if s.head == e {
		s.head = nil
	}
	delete(s.items, e.key)
}
