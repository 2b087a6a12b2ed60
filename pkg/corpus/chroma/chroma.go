// Package chroma provides a Chroma-backed corpus store.
//
// Corpus chunks live in their own collection next to the memory documents,
// embedded server-side like the memory index.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pensieveco/pensieve/pkg/corpus"
	"github.com/pensieveco/pensieve/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for corpus chunks.
	DefaultCollectionName = "markdown_chunks"

	apiPrefix = "/api/v2/tenants/default_tenant/databases/default_database"
)

// Store implements corpus.Store using Chroma's REST API.
type Store struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma corpus store.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewStore creates a Chroma-backed corpus store.
func NewStore(c Config, logger *slog.Logger) (*Store, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	s := &Store{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	collectionID, err := s.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: getting or creating collection %q: %v",
			vector.ErrConnection, collectionName, err)
	}
	s.collectionID = collectionID

	logger.Info("connected to Chroma corpus",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", collectionID,
	)

	return s, nil
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Store) getOrCreateCollection(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s%s/collections/%s", s.baseURL, apiPrefix, s.collectionName)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection collectionResponse
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	createURL := fmt.Sprintf("%s%s/collections", s.baseURL, apiPrefix)
	jsonBody, err := json.Marshal(map[string]string{"name": s.collectionName})
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection collectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}
	return collection.ID, nil
}

type upsertRequest struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

// Index upserts chunks keyed by content hash, so unchanged chunks never
// re-embed.
func (s *Store) Index(ctx context.Context, chunks []corpus.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		ids[i] = corpus.ChunkID(chunk.Content)
		documents[i] = chunk.Content
		metadatas[i] = map[string]any{
			"source":        chunk.Source,
			"heading":       chunk.Heading,
			"heading_level": chunk.HeadingLevel,
			"start_line":    chunk.StartLine,
			"end_line":      chunk.EndLine,
		}
	}

	jsonBody, err := json.Marshal(upsertRequest{IDs: ids, Documents: documents, Metadatas: metadatas})
	if err != nil {
		return fmt.Errorf("marshaling upsert request: %w", err)
	}

	url := fmt.Sprintf("%s%s/collections/%s/upsert", s.baseURL, apiPrefix, s.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to upsert chunks: status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Debug("indexed corpus chunks", "count", len(chunks))

	return nil
}

type queryRequest struct {
	QueryTexts []string `json:"query_texts"`
	NResults   int      `json:"n_results"`
	Include    []string `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Documents [][]string         `json:"documents"`
}

// Search finds the topK chunks closest to the query text.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]corpus.Hit, error) {
	if topK <= 0 {
		topK = 5
	}

	jsonBody, err := json.Marshal(queryRequest{
		QueryTexts: []string{query},
		NResults:   topK,
		Include:    []string{"metadatas", "distances", "documents"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	url := fmt.Sprintf("%s%s/collections/%s/query", s.baseURL, apiPrefix, s.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to query: status %d: %s", resp.StatusCode, string(body))
	}

	var queryResp queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	var hits []corpus.Hit
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return hits, nil
	}

	count := len(queryResp.IDs[0])
	for i := 0; i < count; i++ {
		hit := corpus.Hit{}
		if len(queryResp.Documents) > 0 && i < len(queryResp.Documents[0]) {
			hit.Content = queryResp.Documents[0][i]
		}
		if len(queryResp.Distances) > 0 && i < len(queryResp.Distances[0]) {
			hit.Distance = queryResp.Distances[0][i]
		}
		if len(queryResp.Metadatas) > 0 && i < len(queryResp.Metadatas[0]) && queryResp.Metadatas[0][i] != nil {
			meta := queryResp.Metadatas[0][i]
			if v, ok := meta["source"].(string); ok {
				hit.Source = v
			}
			if v, ok := meta["heading"].(string); ok {
				hit.Heading = v
			}
			if v, ok := meta["heading_level"].(float64); ok {
				hit.HeadingLevel = int(v)
			}
			if v, ok := meta["start_line"].(float64); ok {
				hit.StartLine = int(v)
			}
			if v, ok := meta["end_line"].(float64); ok {
				hit.EndLine = int(v)
			}
		}
		hits = append(hits, hit)
	}

	s.logger.Debug("queried corpus", "results", len(hits))

	return hits, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s%s/collections/%s/count", s.baseURL, apiPrefix, s.collectionID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating count request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("failed to count chunks: status %d: %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return count, nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return nil
}
