package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store] for examples and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Put installs or replaces the record for subjectID.
func (s *MemoryStore) Put(subjectID string, record Record) {
	s.mu.Lock()
	s.records[subjectID] = record
	s.mu.Unlock()
}

// Delete removes the record for subjectID. Idempotent.
func (s *MemoryStore) Delete(subjectID string) {
	s.mu.Lock()
	delete(s.records, subjectID)
	s.mu.Unlock()
}

// Lookup implements [Store].
func (s *MemoryStore) Lookup(_ context.Context, subjectID string) (Record, error) {
	s.mu.RLock()
	record, ok := s.records[subjectID]
	s.mu.RUnlock()

	if !ok {
		return Record{}, ErrUnknownSubject
	}
	return record, nil
}
