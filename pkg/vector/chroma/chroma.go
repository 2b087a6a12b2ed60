// Package chroma provides a Chroma vector database driver implementation.
//
// Documents are embedded server-side by the collection's embedding function,
// so the driver speaks plain text in both directions.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pensieveco/pensieve/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for memory documents.
	DefaultCollectionName = "pensieve"

	// DefaultMaxRetries is how many times collection bootstrap is attempted
	// before giving up.
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the initial backoff between bootstrap attempts.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the backoff growth.
	DefaultMaxRetryDelay = 5 * time.Second

	apiPrefix = "/api/v2/tenants/default_tenant/databases/default_database"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries bounds collection bootstrap attempts while Chroma starts
	// up. Defaults to DefaultMaxRetries if zero.
	MaxRetries int

	// RetryDelay is the initial backoff between attempts. Defaults to
	// DefaultRetryDelay if zero.
	RetryDelay time.Duration

	// MaxRetryDelay caps the backoff. Defaults to DefaultMaxRetryDelay if
	// zero.
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver, retrying collection
// bootstrap with backoff while the server comes up.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var (
		collectionID string
		err          error
	)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		collectionID, err = d.getOrCreateCollection(context.Background())
		if err == nil {
			break
		}
		if attempt < maxRetries {
			logger.Warn("chroma not ready, retrying",
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
			time.Sleep(delay)
			delay = min(delay*2, maxDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getting or creating collection %q after %d attempts: %v",
			vector.ErrConnection, collectionName, maxRetries, err)
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", collectionID,
	)

	return d, nil
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s%s/collections/%s", d.baseURL, apiPrefix, d.collectionName)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
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

	// Collection doesn't exist, create it
	createURL := fmt.Sprintf("%s%s/collections", d.baseURL, apiPrefix)
	jsonBody, err := json.Marshal(map[string]string{"name": d.collectionName})
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = d.httpClient.Do(req)
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

// Add indexes documents; Chroma computes the embeddings server-side.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	metadatas := make([]map[string]any, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		contents[i] = doc.Content
		metadatas[i] = map[string]any{
			"salience": doc.Salience,
			"frames":   strings.Join(doc.Frames, ","),
		}
	}

	jsonBody, err := json.Marshal(addRequest{
		IDs:       ids,
		Documents: contents,
		Metadatas: metadatas,
	})
	if err != nil {
		return fmt.Errorf("marshaling add request: %w", err)
	}

	url := fmt.Sprintf("%s%s/collections/%s/add", d.baseURL, apiPrefix, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating add request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending add request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to add documents: status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("added documents to chroma", "count", len(docs))

	return nil
}

// Search finds the topK documents closest to the query text.
func (d *Driver) Search(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		topK = 10
	}

	jsonBody, err := json.Marshal(queryRequest{
		QueryTexts: []string{query},
		NResults:   topK,
		Include:    []string{"metadatas", "distances", "documents"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	url := fmt.Sprintf("%s%s/collections/%s/query", d.baseURL, apiPrefix, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
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

	var results []vector.Result

	// Process first group (we only query with one text)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	distances := queryResp.Distances[0]

	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}
	var contents []string
	if len(queryResp.Documents) > 0 {
		contents = queryResp.Documents[0]
	}

	for i, id := range ids {
		result := vector.Result{
			Document: vector.Document{ID: id},
		}

		if i < len(contents) {
			result.Content = contents[i]
		}
		if i < len(metadatas) && metadatas[i] != nil {
			if salience, ok := metadatas[i]["salience"].(float64); ok {
				result.Salience = salience
			}
			if frames, ok := metadatas[i]["frames"].(string); ok && frames != "" {
				result.Frames = strings.Split(frames, ",")
			}
		}
		if i < len(distances) {
			result.Distance = distances[i]
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma", "results", len(results))

	return results, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	jsonBody, err := json.Marshal(deleteRequest{IDs: ids})
	if err != nil {
		return fmt.Errorf("marshaling delete request: %w", err)
	}

	url := fmt.Sprintf("%s%s/collections/%s/delete", d.baseURL, apiPrefix, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete documents: status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("deleted documents from chroma", "count", len(ids))

	return nil
}

// Count returns the number of indexed documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s%s/collections/%s/count", d.baseURL, apiPrefix, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating count request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("failed to count documents: status %d: %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return count, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}
