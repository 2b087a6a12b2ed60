// Package vector provides interfaces and implementations for semantic memory
// search.
package vector

import "context"

// Document is an indexed memory summary.
type Document struct {
	// ID is the memory ID the document belongs to.
	ID string

	// Content is the indexed text, typically the memory's summary plus its
	// retrieval hints.
	Content string

	// Salience is the memory's encoded salience, carried as metadata so
	// search results rank without a store round trip.
	Salience float64

	// Frames are the memory's semantic category labels.
	Frames []string
}

// Result is one semantic search hit.
type Result struct {
	Document

	// Distance is the raw vector distance; lower is closer. The retrieval
	// engine converts it to a similarity score.
	Distance float64
}

// Driver handles indexing and semantic search of memory documents.
type Driver interface {
	// Add indexes documents. A document with an existing ID replaces the
	// previous version.
	Add(ctx context.Context, docs []Document) error

	// Search finds the topK documents closest to the query text, ordered by
	// ascending distance.
	Search(ctx context.Context, query string, topK int) ([]Result, error)

	// Delete removes documents by memory ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
