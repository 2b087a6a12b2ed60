// Package repo provides the durable state store for pensieve's per-memory
// bookkeeping. Each service (reinforcement, tiers, links, perspectives) keeps
// one JSON document per memory ID in its own collection; the store guarantees
// that a successful Upsert is durable before it returns.
package repo

import "context"

// Collection names for the state maps owned by the core services.
const (
	CollectionReinforcement = "reinforcement"
	CollectionTiers         = "storage_tiers"
	CollectionLinks         = "links"
	CollectionPerspectives  = "perspectives"
)

// Store persists JSON-encoded state documents keyed by (collection, id).
//
// Implementations must make a successful Upsert or Delete durable before
// returning; the core services treat a persistence failure as fatal to the
// triggering call.
type Store interface {
	// Get retrieves a document. Returns ErrNotFound if no document exists
	// for the given key.
	Get(ctx context.Context, collection, id string) ([]byte, error)

	// Upsert inserts or replaces a document.
	Upsert(ctx context.Context, collection, id string, doc []byte) error

	// Delete removes a document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// All returns every document in a collection keyed by ID.
	All(ctx context.Context, collection string) (map[string][]byte, error)

	// Close releases any resources held by the store.
	Close() error
}
