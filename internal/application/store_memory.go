package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"veris/internal/risk"
	id "veris/pkg/domain"
)

// MemoryStore is an in-memory Store for tests and local development. It
// enforces the same compare-and-swap discipline as the SQL store.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*Application
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: make(map[id.ApplicationID]*Application)}
}

func (s *MemoryStore) Create(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app.Version = 1
	s.apps[app.ID] = cloneApplication(app)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.apps[app.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != app.Version {
		return ErrVersionConflict
	}
	app.Version++
	s.apps[app.ID] = cloneApplication(app)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, appID id.ApplicationID) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneApplication(app), nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Application
	for _, app := range s.apps {
		if app.UserID == userID {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListExpiring(_ context.Context, cutoff time.Time, limit int) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Application
	for _, app := range s.apps {
		if app.Status.IsTerminal() || app.ExpiresAt.After(cutoff) {
			continue
		}
		out = append(out, cloneApplication(app))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneApplication(app *Application) *Application {
	cp := *app
	cp.Progress.CompletedSteps = append([]string(nil), app.Progress.CompletedSteps...)
	cp.History = append([]HistoryEntry(nil), app.History...)
	if app.Risk != nil {
		r := *app.Risk
		r.Factors = append([]risk.Factor(nil), app.Risk.Factors...)
		cp.Risk = &r
	}
	if app.Review != nil {
		rv := *app.Review
		cp.Review = &rv
	}
	return &cp
}
