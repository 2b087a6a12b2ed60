// Package perspective stores frame-specific restatements of memories.
//
// A memory encoded once can matter differently depending on what the
// conversation is about; a perspective is the memory's gist rewritten for a
// single frame. Recall picks the perspective whose frame best matches the
// query's frames.
package perspective

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pensieveco/pensieve/pkg/logger"
	"github.com/pensieveco/pensieve/pkg/repo"
)

// contextMatchBoost is added to a perspective's score when its frame is
// active in the query context.
const contextMatchBoost = 0.3

// Perspective is one frame-specific view of a memory.
type Perspective struct {
	// Frame is the semantic category this view speaks to.
	Frame string `json:"frame"`

	// Gist is the memory restated for the frame.
	Gist string `json:"gist"`

	// Salience is the view's own importance within the memory.
	Salience float64 `json:"salience"`

	// Keywords aid keyword-style matching on the view.
	Keywords []string `json:"keywords,omitempty"`
}

// record is the persisted perspective set for one memory.
type record struct {
	MemoryID     string                 `json:"memory_id"`
	Perspectives map[string]Perspective `json:"perspectives"`
	GeneratedAt  *time.Time             `json:"generated_at,omitempty"`
}

// Provider selects the best perspective of a memory for a context.
type Provider interface {
	// BestFor returns the perspective that best matches the context frames,
	// or nil when the memory has none.
	BestFor(ctx context.Context, memoryID string, contextFrames []string) (*Perspective, error)
}

// Config holds the collaborators for a Manager.
type Config struct {
	// Store persists perspective records. Required.
	Store repo.Store

	// Logger is optional; defaults to a nop logger.
	Logger *slog.Logger

	// Now overrides the wall clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager owns perspective records.
type Manager struct {
	mu     sync.Mutex
	store  repo.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a perspective manager.
func NewManager(c Config) (*Manager, error) {
	if c.Store == nil {
		return nil, errors.New("state store is required")
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		store:  c.Store,
		logger: log.With("component", "perspective"),
		now:    now,
	}, nil
}

func (m *Manager) load(ctx context.Context, memoryID string) (*record, error) {
	doc, err := m.store.Get(ctx, repo.CollectionPerspectives, memoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return &record{MemoryID: memoryID, Perspectives: map[string]Perspective{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading perspectives for %s: %w", memoryID, err)
	}

	rec := &record{MemoryID: memoryID, Perspectives: map[string]Perspective{}}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("decoding perspectives for %s: %w", memoryID, err)
	}
	if rec.Perspectives == nil {
		rec.Perspectives = map[string]Perspective{}
	}
	return rec, nil
}

// Add stores a perspective for a memory, replacing any existing view for the
// same frame.
func (m *Manager) Add(ctx context.Context, memoryID string, p Perspective) error {
	if p.Frame == "" {
		return errors.New("perspective frame is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.load(ctx, memoryID)
	if err != nil {
		return err
	}

	rec.Perspectives[p.Frame] = p
	now := m.now()
	rec.GeneratedAt = &now

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding perspectives for %s: %w", memoryID, err)
	}
	if err := m.store.Upsert(ctx, repo.CollectionPerspectives, memoryID, doc); err != nil {
		return fmt.Errorf("persisting perspectives for %s: %w", memoryID, err)
	}
	return nil
}

// All returns every perspective stored for a memory, keyed by frame.
func (m *Manager) All(ctx context.Context, memoryID string) (map[string]Perspective, error) {
	rec, err := m.load(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	return rec.Perspectives, nil
}

// BestFor returns the perspective that best matches the context frames.
// Each perspective scores its own salience plus a fixed boost when its frame
// is active in the context; the highest score wins. Nil when the memory has
// no perspectives.
func (m *Manager) BestFor(ctx context.Context, memoryID string, contextFrames []string) (*Perspective, error) {
	rec, err := m.load(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if len(rec.Perspectives) == 0 {
		return nil, nil
	}

	active := make(map[string]bool, len(contextFrames))
	for _, frame := range contextFrames {
		active[frame] = true
	}

	bestScore := -1.0
	var best *Perspective
	for frame, p := range rec.Perspectives {
		score := p.Salience
		if active[frame] {
			score += contextMatchBoost
		}
		if score > bestScore {
			bestScore = score
			view := p
			best = &view
		}
	}
	return best, nil
}
