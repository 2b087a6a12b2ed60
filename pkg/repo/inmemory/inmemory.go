// Package inmemory provides an in-process implementation of repo.Store.
// Nothing is durable; it exists for tests and ephemeral single-session use.
package inmemory

import (
	"context"
	"sync"

	"github.com/pensieveco/pensieve/pkg/repo"
)

// Store implements repo.Store using nested maps.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string][]byte),
	}
}

func (s *Store) Get(_ context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, repo.ErrNotFound
	}
	doc, ok := docs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *Store) Upsert(_ context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}

	stored := make([]byte, len(doc))
	copy(stored, doc)
	docs[id] = stored
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docs, ok := s.collections[collection]; ok {
		delete(docs, id)
	}
	return nil
}

func (s *Store) All(_ context.Context, collection string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make(map[string][]byte, len(docs))
	for id, doc := range docs {
		cp := make([]byte, len(doc))
		copy(cp, doc)
		out[id] = cp
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
