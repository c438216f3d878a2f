package processstore

import (
	"context"
	"sync"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/events"
)

// MemStore is the default in-process Store. State dies with the process;
// use PostgresStore for durability.
type MemStore struct {
	mu      sync.RWMutex
	logs    map[string][]events.Event
	records map[string]Record
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		logs:    make(map[string][]events.Event),
		records: make(map[string]Record),
	}
}

// Append implements Store.
func (s *MemStore) Append(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[ev.ProcessID] = append(s.logs[ev.ProcessID], ev)
	return nil
}

// Events implements Store.
func (s *MemStore) Events(_ context.Context, processID string) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Event(nil), s.logs[processID]...), nil
}

// SaveRecord implements Store.
func (s *MemStore) SaveRecord(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ProcessID] = rec
	return nil
}

// Record implements Store.
func (s *MemStore) Record(_ context.Context, processID string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[processID]
	return rec, ok, nil
}

// Records implements Store.
func (s *MemStore) Records(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

// DeleteOlderThan implements Store.
func (s *MemStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if rec.UpdatedAt.Before(cutoff) {
			delete(s.records, id)
			delete(s.logs, id)
			removed++
		}
	}
	return removed, nil
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }
