// Package inmemory provides an in-process memstore.Store for tests and
// ephemeral sessions.
package inmemory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pensieveco/pensieve/pkg/memstore"
)

// Store implements memstore.Store using a map.
type Store struct {
	mu       sync.RWMutex
	memories map[string]*memstore.Memory
}

// NewStore creates an empty in-memory memory store.
func NewStore() *Store {
	return &Store{
		memories: make(map[string]*memstore.Memory),
	}
}

func (s *Store) Get(_ context.Context, id string) (*memstore.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memories[id]
	if !ok {
		return nil, memstore.ErrNotFound
	}

	cp := *m
	if m.Verbatim != nil {
		cp.Verbatim = append(json.RawMessage(nil), m.Verbatim...)
	}
	return &cp, nil
}

func (s *Store) Put(_ context.Context, m *memstore.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	if m.Verbatim != nil {
		cp.Verbatim = append(json.RawMessage(nil), m.Verbatim...)
	}
	s.memories[m.ID] = &cp
	return nil
}

func (s *Store) PutVerbatim(_ context.Context, id string, verbatim json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memories[id]
	if !ok {
		return memstore.ErrNotFound
	}
	m.Verbatim = append(json.RawMessage(nil), verbatim...)
	return nil
}

func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.memories))
	for id := range s.memories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Close() error {
	return nil
}
