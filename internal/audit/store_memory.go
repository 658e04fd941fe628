package audit

import (
	"context"
	"sync"

	id "veris/pkg/domain"
)

// MemoryStore is an in-memory append-only sink for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.ApplicationID == appID {
			out = append(out, event)
		}
	}
	return out, nil
}
