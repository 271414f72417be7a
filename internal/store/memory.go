package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/scoutlink/alliance-backend/internal/session"
)

// MemoryStore backs tests and single-node dev mode. Documents are cloned on
// both writes and reads so callers never share memory with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*session.Document
}

func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*session.Document)}
}

func (s *MemoryStore) Create(_ context.Context, doc *session.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, doc *session.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (*session.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *session.Document
	for _, doc := range s.docs {
		if doc.Code != code || doc.Status != session.StatusActive {
			continue
		}
		if newest == nil || doc.CreatedAt.After(newest.CreatedAt) {
			newest = doc
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	out := newest.Clone()
	out.Normalize()
	return out, nil
}

func (s *MemoryStore) FindActive(_ context.Context) ([]*session.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []*session.Document
	for _, doc := range s.docs {
		if doc.Status == session.StatusActive {
			out := doc.Clone()
			out.Normalize()
			docs = append(docs, out)
		}
	}
	return docs, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}
