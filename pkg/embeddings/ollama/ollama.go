// Package ollama embeds text through a local Ollama server's /api/embed
// endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pensieveco/pensieve/pkg/embeddings"
	"github.com/pensieveco/pensieve/pkg/vector"
)

const (
	// DefaultEmbeddingModel matches the config default.
	DefaultEmbeddingModel = "embeddinggemma"

	// DefaultBaseURL is a local Ollama install.
	DefaultBaseURL = "http://localhost:11434"

	// Embedding a cold model can take a while on first call while Ollama
	// loads it, so the client timeout is generous.
	requestTimeout = 120 * time.Second
)

// Embedder calls Ollama's embedding API.
type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// EmbedderConfig configures the Ollama embedder. Zero values fall back to
// the package defaults.
type EmbedderConfig struct {
	// BaseURL is the Ollama server URL.
	BaseURL string

	// Model names the embedding model, e.g. "embeddinggemma" or
	// "nomic-embed-text".
	Model string
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder builds an Embedder from cfg.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	e := &Embedder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: requestTimeout},
	}
	if e.baseURL == "" {
		e.baseURL = DefaultBaseURL
	}
	if e.model == "" {
		e.model = DefaultEmbeddingModel
	}

	return e, nil
}

// Embed returns the embedding for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", vector.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", vector.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling ollama: %v", vector.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", vector.ErrEmbedding, resp.StatusCode, string(body))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", vector.ErrEmbedding, err)
	}

	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	return out.Embeddings[0], nil
}

// Close is a no-op; the HTTP client holds no resources needing cleanup.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
