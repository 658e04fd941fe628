package verification

import (
	"context"
	"sort"
	"sync"

	id "veris/pkg/domain"
)

// MemoryCaptureStore is an in-memory CaptureStore for tests and local
// development.
type MemoryCaptureStore struct {
	mu       sync.RWMutex
	captures map[id.CaptureID]*Capture
}

func NewMemoryCaptureStore() *MemoryCaptureStore {
	return &MemoryCaptureStore{captures: make(map[id.CaptureID]*Capture)}
}

func (s *MemoryCaptureStore) Create(_ context.Context, capture *Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *capture
	s.captures[capture.ID] = &cp
	return nil
}

func (s *MemoryCaptureStore) Get(_ context.Context, captureID id.CaptureID) (*Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	capture, ok := s.captures[captureID]
	if !ok {
		return nil, ErrCaptureNotFound
	}
	cp := *capture
	return &cp, nil
}

func (s *MemoryCaptureStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]*Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Capture
	for _, capture := range s.captures {
		if capture.ApplicationID == appID {
			cp := *capture
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

// MemoryResultStore is an in-memory ResultStore.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[id.VerificationID]*Result
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: make(map[id.VerificationID]*Result)}
}

func (s *MemoryResultStore) Create(_ context.Context, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneResult(result)
	s.results[result.ID] = cp
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, resultID id.VerificationID) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[resultID]
	if !ok {
		return nil, ErrResultNotFound
	}
	return cloneResult(result), nil
}

func (s *MemoryResultStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Result
	for _, result := range s.results {
		if result.ApplicationID == appID {
			out = append(out, cloneResult(result))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneResult(result *Result) *Result {
	cp := *result
	cp.Checks = append([]CheckOutcome(nil), result.Checks...)
	cp.FailureReasons = append([]Reason(nil), result.FailureReasons...)
	cp.Recommendations = append([]string(nil), result.Recommendations...)
	if result.Match != nil {
		m := *result.Match
		cp.Match = &m
	}
	return &cp
}
