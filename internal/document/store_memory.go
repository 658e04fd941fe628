package document

import (
	"context"
	"sort"
	"sync"

	id "veris/pkg/domain"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[id.DocumentID]*Document)}
}

func (s *MemoryStore) Create(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, docID id.DocumentID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Document
	for _, doc := range s.docs {
		if doc.ApplicationID == appID {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func cloneDocument(doc *Document) *Document {
	cp := *doc
	if doc.Fields != nil {
		cp.Fields = make(map[string]Field, len(doc.Fields))
		for k, v := range doc.Fields {
			cp.Fields[k] = v
		}
	}
	if doc.Validation != nil {
		v := *doc.Validation
		v.Issues = append([]Issue(nil), doc.Validation.Issues...)
		cp.Validation = &v
	}
	if doc.ProcessedAt != nil {
		t := *doc.ProcessedAt
		cp.ProcessedAt = &t
	}
	if doc.ValidatedAt != nil {
		t := *doc.ValidatedAt
		cp.ValidatedAt = &t
	}
	return &cp
}
