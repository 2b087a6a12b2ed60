// Package inmemory provides an in-process archive.Store for tests.
package inmemory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/pensieveco/pensieve/pkg/archive"
)

// Store implements archive.Store using a map.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]json.RawMessage
}

// NewStore creates an empty in-memory archive store.
func NewStore() *Store {
	return &Store{
		blobs: make(map[string]json.RawMessage),
	}
}

func (s *Store) Put(_ context.Context, _ string, verbatim json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := uuid.NewString()
	s.blobs[handle] = append(json.RawMessage(nil), verbatim...)
	return handle, nil
}

func (s *Store) Get(_ context.Context, handle string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[handle]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return append(json.RawMessage(nil), blob...), nil
}

func (s *Store) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, handle)
	return nil
}
