package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. Limits are per process.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryEntry
}

type memoryEntry struct {
	Record
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Take(ctx context.Context, key string, p Policy, now time.Time) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.records[key]
	if !ok || !now.Before(e.expires) {
		e = &memoryEntry{
			Record:  Record{Key: key, WindowStart: now},
			expires: now.Add(p.Window),
		}
		s.records[key] = e
	}
	e.Count++
	e.LastRequestAt = now

	return decide(e.WindowStart, e.Count, p, now), nil
}

// Get returns a copy of the record for key, if any.
func (s *MemoryStore) Get(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return e.Record, true
}

// Sweep drops every window that has expired at now and returns how many
// were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.records {
		if !now.Before(e.expires) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Reset forgets all windows.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*memoryEntry)
}
