// Package memstore defines the interface to the external memory-record store.
//
// Memory records are owned by the encoding pipeline, not by pensieve's core
// services: the core reads them for display and salience bootstrapping, and
// the tier manager swaps the verbatim payload during archive/restore. Nothing
// else is ever mutated through this interface.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when no memory record exists for an ID.
var ErrNotFound = errors.New("memory not found")

// Memory is an externally-encoded memory record.
type Memory struct {
	ID string `json:"id"`

	// Summary is the human-readable gist of the memory.
	Summary string `json:"summary,omitempty"`

	// Frames are the semantic category labels assigned at encoding time.
	Frames []string `json:"frames,omitempty"`

	// Tags are free-form metadata labels.
	Tags []string `json:"tags,omitempty"`

	// Salience is the [0,1] importance assigned at encoding time. The
	// reinforcement tracker treats this as the prior for unaccessed memories.
	Salience float64 `json:"salience"`

	// RetrievalHints are keywords chosen at encoding time to aid search.
	RetrievalHints []string `json:"retrieval_hints,omitempty"`

	// Verbatim is the full structured detail payload. It is opaque to the
	// core except for the tier manager's archive placeholder handling.
	Verbatim json.RawMessage `json:"verbatim,omitempty"`

	// Timestamp is when the memory was encoded.
	Timestamp time.Time `json:"timestamp"`
}

// Store provides access to memory records.
type Store interface {
	// Get retrieves a memory by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Memory, error)

	// Put inserts or replaces a memory record.
	Put(ctx context.Context, m *Memory) error

	// PutVerbatim replaces only the verbatim payload of an existing memory.
	// Used by the tier manager for archive/restore; must be durable before
	// returning.
	PutVerbatim(ctx context.Context, id string, verbatim json.RawMessage) error

	// List returns all memory IDs known to the store.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
