// Package embeddings defines the embedding provider interface used by vector
// backends that do not embed server-side.
package embeddings

import "context"

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	// Embed returns the embedding for a single piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases resources held by the provider.
	Close() error
}
