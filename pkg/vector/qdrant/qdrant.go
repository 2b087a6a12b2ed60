// Package qdrant provides a Qdrant vector database driver implementation.
//
// Qdrant has no server-side embedding, so the driver pairs the gRPC client
// with an embedder that vectorizes documents and queries before they go over
// the wire.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	qdrantgo "github.com/qdrant/go-client/qdrant"

	"github.com/pensieveco/pensieve/pkg/embeddings"
	"github.com/pensieveco/pensieve/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for memory documents.
	DefaultCollectionName = "pensieve"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334
)

// Driver implements vector.Driver using Qdrant's gRPC API.
type Driver struct {
	client     *qdrantgo.Client
	collection string
	embedder   embeddings.Embedder
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port. Defaults to DefaultPort if zero.
	Port int

	// APIKey authenticates against a secured Qdrant deployment. Optional.
	APIKey string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the embedding vector size, required to create the
	// collection on first use.
	Dimensions uint64
}

// NewDriver creates a new Qdrant vector driver, creating the collection if
// it does not exist yet.
func NewDriver(c Config, embedder embeddings.Embedder, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrantgo.NewClient(&qdrantgo.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	ctx := context.Background()
	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, collection, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrantgo.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrantgo.NewVectorsConfig(&qdrantgo.VectorParams{
				Size:     c.Dimensions,
				Distance: qdrantgo.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		"host", c.Host,
		"port", port,
		"collection", collection,
	)

	return &Driver{
		client:     client,
		collection: collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Add embeds and upserts documents.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrantgo.PointStruct, 0, len(docs))
	for _, doc := range docs {
		embedding, err := d.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embedding document %s: %w", doc.ID, err)
		}

		points = append(points, &qdrantgo.PointStruct{
			Id:      qdrantgo.NewID(pointID(doc.ID)),
			Vectors: qdrantgo.NewVectors(embedding...),
			Payload: qdrantgo.NewValueMap(map[string]any{
				"memory_id": doc.ID,
				"content":   doc.Content,
				"salience":  doc.Salience,
				"frames":    strings.Join(doc.Frames, ","),
			}),
		})
	}

	wait := true
	_, err := d.client.Upsert(ctx, &qdrantgo.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))

	return nil
}

// Search embeds the query and finds the topK closest documents. Qdrant
// reports cosine similarity, which converts to the distance the retrieval
// engine expects as 1 - similarity.
func (d *Driver) Search(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		topK = 10
	}

	embedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	limit := uint64(topK)
	points, err := d.client.Query(ctx, &qdrantgo.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrantgo.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrantgo.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.Result, 0, len(points))
	for _, point := range points {
		result := vector.Result{
			Distance: float64(1 - point.GetScore()),
		}

		payload := point.GetPayload()
		if v, ok := payload["memory_id"]; ok {
			result.ID = v.GetStringValue()
		}
		if v, ok := payload["content"]; ok {
			result.Content = v.GetStringValue()
		}
		if v, ok := payload["salience"]; ok {
			result.Salience = v.GetDoubleValue()
		}
		if v, ok := payload["frames"]; ok && v.GetStringValue() != "" {
			result.Frames = strings.Split(v.GetStringValue(), ",")
		}

		results = append(results, result)
	}

	d.logger.Debug("queried qdrant", "results", len(results))

	return results, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrantgo.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrantgo.NewID(pointID(id))
	}

	wait := true
	_, err := d.client.Delete(ctx, &qdrantgo.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrantgo.NewPointsSelector(pointIDs...),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant", "count", len(ids))

	return nil
}

// Count returns the number of indexed documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	count, err := d.client.Count(ctx, &qdrantgo.CountPoints{
		CollectionName: d.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(count), nil
}

// pointID derives a stable UUID from a memory ID. Qdrant point IDs must be
// UUIDs or integers; memory IDs are neither.
func pointID(memoryID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(memoryID)).String()
}

// Close releases the client connection and the embedder.
func (d *Driver) Close() error {
	if err := d.embedder.Close(); err != nil {
		d.logger.Warn("closing embedder failed", "error", err)
	}
	return d.client.Close()
}
