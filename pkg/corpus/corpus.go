// Package corpus provides indexing and semantic search over a markdown
// knowledge corpus.
//
// The corpus sits alongside the encoded memories as a second recall source:
// raw notes and docs, chunked by heading, searched the same way and merged
// into hybrid recall results with a lower weight.
package corpus

import "context"

// Chunk is a section extracted from a markdown file.
type Chunk struct {
	// Content is the chunk text, headings included.
	Content string `json:"content"`

	// Source is the originating file path.
	Source string `json:"source"`

	// Heading is the section heading the chunk falls under; empty for
	// preamble text.
	Heading string `json:"heading"`

	// HeadingLevel is the heading depth (1-6); zero for preamble.
	HeadingLevel int `json:"heading_level"`

	// StartLine and EndLine locate the chunk in the source file, 1-based
	// inclusive.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Hit is a corpus search result.
type Hit struct {
	Chunk

	// Distance is the raw vector distance; lower is closer.
	Distance float64 `json:"distance"`
}

// Searcher provides semantic search over indexed corpus chunks.
type Searcher interface {
	// Search finds the topK chunks closest to the query text, ordered by
	// ascending distance.
	Search(ctx context.Context, query string, topK int) ([]Hit, error)

	// Close releases any resources held by the searcher.
	Close() error
}

// Store is a Searcher that also accepts new chunks.
type Store interface {
	Searcher

	// Index adds chunks. Chunks with unchanged content are deduplicated by
	// content hash.
	Index(ctx context.Context, chunks []Chunk) error

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)
}
