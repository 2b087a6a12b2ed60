// Package archive defines blob storage for archived verbatim payloads.
//
// When the tier manager archives a cold memory, the full verbatim detail
// moves out of the live memory store into an archive blob and a handle takes
// its place. Restore reads the blob back by handle. Blobs are immutable once
// written.
package archive

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when no blob exists for a handle.
var ErrNotFound = errors.New("archived payload not found")

// Store persists archived verbatim payloads.
type Store interface {
	// Put stores a payload and returns an opaque handle for it. The write
	// must be durable before returning.
	Put(ctx context.Context, memoryID string, verbatim json.RawMessage) (string, error)

	// Get retrieves a payload by handle. Returns ErrNotFound if absent.
	Get(ctx context.Context, handle string) (json.RawMessage, error)

	// Delete removes a payload by handle. Deleting an absent handle is not
	// an error.
	Delete(ctx context.Context, handle string) error
}
