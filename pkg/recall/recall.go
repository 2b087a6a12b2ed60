// Package recall is the retrieval engine: semantic search over encoded
// memories, optionally merged with corpus chunks, reranked and enriched into
// context-ready results.
//
// Every accepted memory hit counts as an access, so recall itself reinforces
// what gets recalled.
package recall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pensieveco/pensieve/pkg/corpus"
	"github.com/pensieveco/pensieve/pkg/logger"
	"github.com/pensieveco/pensieve/pkg/memstore"
	"github.com/pensieveco/pensieve/pkg/perspective"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/vector"
)

const (
	// DefaultMinSimilarity is the floor below which hits are dropped unless
	// low-confidence results are requested.
	DefaultMinSimilarity = 0.35

	// DefaultMaxResults is how many results a recall returns by default.
	DefaultMaxResults = 3

	// DefaultCorpusWeight scales corpus similarities before merging, so an
	// encoded memory outranks a raw chunk of equal distance.
	DefaultCorpusWeight = 0.8

	// keywordWeight scales the exact-term bonus applied to corpus chunks.
	keywordWeight = 0.2

	// overFetchFactor is how many candidates to pull per requested result,
	// leaving room for threshold filtering and dedup.
	overFetchFactor = 2

	// dedupPrefixLen is how many summary characters key the cross-source
	// dedup.
	dedupPrefixLen = 100
)

// ResultType distinguishes the source of a recall result.
type ResultType string

const (
	ResultTypeMemory        ResultType = "memory"
	ResultTypeMarkdownChunk ResultType = "markdown_chunk"
)

// Result is one recalled item, ready for context assembly.
type Result struct {
	// ID is the memory ID, or a synthetic "md:<file>#L<line>" ID for corpus
	// chunks.
	ID string `json:"id"`

	// Summary is the memory gist or the chunk text.
	Summary string `json:"summary"`

	// Similarity is the final [0,1] relevance score after reranking.
	Similarity float64 `json:"similarity"`

	// Salience is the dynamic salience for memories, and the similarity as a
	// stand-in for corpus chunks.
	Salience float64 `json:"salience"`

	// Type says which source produced the result.
	Type ResultType `json:"result_type"`

	// Frames are the memory's semantic categories; empty for chunks.
	Frames []string `json:"frames,omitempty"`

	// Tags are the memory's free-form labels; empty for chunks.
	Tags []string `json:"tags,omitempty"`

	// Perspective is the frame-matched restatement, when one exists.
	Perspective *perspective.Perspective `json:"perspective,omitempty"`

	// Source and Heading locate a corpus chunk in its file.
	Source  string `json:"source,omitempty"`
	Heading string `json:"heading,omitempty"`

	// Timestamp is when the memory was encoded, when known.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Options tune a single recall.
type Options struct {
	// MaxResults caps the result count. Defaults to DefaultMaxResults.
	MaxResults int

	// MinSimilarity is the acceptance floor. Defaults to
	// DefaultMinSimilarity; zero means the default, use
	// IncludeLowConfidence to disable filtering.
	MinSimilarity float64

	// IncludeLowConfidence keeps hits below the similarity floor.
	IncludeLowConfidence bool

	// ContextFrames are the frames active in the current conversation, used
	// to pick perspectives.
	ContextFrames []string
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}
	return o
}

// Config holds the collaborators for an Engine.
type Config struct {
	// Vector searches the memory index. Required.
	Vector vector.Driver

	// Tracker records accesses and computes dynamic salience. Required.
	Tracker *reinforce.Tracker

	// Corpus searches the markdown corpus. Optional; without it hybrid
	// recall degrades to memory-only recall.
	Corpus corpus.Searcher

	// Perspectives selects frame-matched restatements. Optional.
	Perspectives perspective.Provider

	// Memories enriches results with stored summaries and tags. Optional.
	Memories memstore.Store

	// CorpusWeight overrides DefaultCorpusWeight when positive.
	CorpusWeight float64

	// Logger is optional; defaults to a nop logger.
	Logger *slog.Logger
}

// Engine merges semantic memory recall with corpus search.
type Engine struct {
	vector       vector.Driver
	tracker      *reinforce.Tracker
	corpus       corpus.Searcher
	perspectives perspective.Provider
	memories     memstore.Store
	corpusWeight float64
	logger       *slog.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(c Config) (*Engine, error) {
	if c.Vector == nil {
		return nil, errors.New("vector driver is required")
	}
	if c.Tracker == nil {
		return nil, errors.New("reinforcement tracker is required")
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	weight := c.CorpusWeight
	if weight <= 0 {
		weight = DefaultCorpusWeight
	}

	return &Engine{
		vector:       c.Vector,
		tracker:      c.Tracker,
		corpus:       c.Corpus,
		perspectives: c.Perspectives,
		memories:     c.Memories,
		corpusWeight: weight,
		logger:       log.With("component", "recall"),
	}, nil
}

// Recall finds memories semantically close to the query. Accepted hits are
// recorded as accesses and returned with their dynamic salience; ordering
// follows the index's distance ordering. An unreachable index degrades to an
// empty result set rather than an error.
func (e *Engine) Recall(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = opts.withDefaults()

	hits, err := e.vector.Search(ctx, query, opts.MaxResults*overFetchFactor)
	if err != nil {
		e.logger.Warn("memory index search failed, recalling nothing", "error", err)
		return nil, nil
	}

	var results []Result
	for _, hit := range hits {
		if len(results) >= opts.MaxResults {
			break
		}

		similarity := distanceToSimilarity(hit.Distance)
		if !opts.IncludeLowConfidence && similarity < opts.MinSimilarity {
			continue
		}

		if err := e.tracker.RecordAccess(ctx, hit.ID, hit.Salience); err != nil {
			return nil, fmt.Errorf("recording access for %s: %w", hit.ID, err)
		}
		salience, err := e.tracker.Salience(ctx, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("computing salience for %s: %w", hit.ID, err)
		}

		result := Result{
			ID:         hit.ID,
			Summary:    hit.Content,
			Similarity: similarity,
			Salience:   salience,
			Type:       ResultTypeMemory,
			Frames:     hit.Frames,
		}
		e.enrich(ctx, &result, opts.ContextFrames)
		results = append(results, result)
	}

	e.logger.Debug("recall complete",
		"query_len", len(query), "candidates", len(hits), "results", len(results))

	return results, nil
}

// enrich fills in stored record detail and the best perspective. Both are
// best-effort: a missing record or perspective never fails the recall.
func (e *Engine) enrich(ctx context.Context, result *Result, contextFrames []string) {
	if e.memories != nil {
		m, err := e.memories.Get(ctx, result.ID)
		switch {
		case err == nil:
			if m.Summary != "" {
				result.Summary = m.Summary
			}
			if len(m.Frames) > 0 {
				result.Frames = m.Frames
			}
			result.Tags = m.Tags
			ts := m.Timestamp
			result.Timestamp = &ts
		case !errors.Is(err, memstore.ErrNotFound):
			e.logger.Debug("memory store lookup failed", "memory_id", result.ID, "error", err)
		}
	}

	if e.perspectives != nil {
		frames := contextFrames
		if len(frames) == 0 {
			frames = result.Frames
		}
		view, err := e.perspectives.BestFor(ctx, result.ID, frames)
		if err != nil {
			e.logger.Debug("perspective lookup failed", "memory_id", result.ID, "error", err)
		} else {
			result.Perspective = view
		}
	}
}

// distanceToSimilarity maps a raw vector distance into (0,1], with distance
// zero scoring 1.
func distanceToSimilarity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
