package consent

import (
	"context"
	"sync"

	id "veris/pkg/domain"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.ApplicationID]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[id.ApplicationID]*Record)}
}

func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	if record.FetchedFields != nil {
		cp.FetchedFields = make(map[string]string, len(record.FetchedFields))
		for k, v := range record.FetchedFields {
			cp.FetchedFields[k] = v
		}
	}
	s.records[record.ApplicationID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, appID id.ApplicationID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[appID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}
