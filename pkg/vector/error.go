package vector

import "errors"

// Sentinel errors shared by all index drivers so callers can branch with
// errors.Is regardless of backend.
var (
	// ErrNotFound means the memory has no entry in the index.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding means the text could not be embedded.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection means the index backend was unreachable.
	ErrConnection = errors.New("vector store connection failed")
)
