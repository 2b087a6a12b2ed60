// Package embeddingutils constructs embedding providers from config values.
package embeddingutils

import (
	"fmt"
	"strings"

	"github.com/pensieveco/pensieve/pkg/embeddings"
	"github.com/pensieveco/pensieve/pkg/embeddings/ollama"
)

// NewEmbedderOpts selects and configures an embedding provider.
type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
}

// NewEmbedder returns the embedder named by opts.ProviderType. Only "ollama"
// is supported; vector backends with server-side embedding skip this path
// entirely.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch strings.ToLower(o.ProviderType) {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
