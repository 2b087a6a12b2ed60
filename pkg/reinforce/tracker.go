// Package reinforce tracks access patterns for memories and computes their
// dynamic salience.
//
// Every retrieval, link, repetition sighting, and piece of feedback
// accumulates on a per-memory Record; Salience folds those signals together
// with a recency decay curve into a [0,1] score. The score drives both
// retrieval ranking and storage tiering, so every mutation here is persisted
// before the call returns — a silently dropped update would corrupt
// downstream tiering decisions.
package reinforce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pensieveco/pensieve/pkg/eventstream"
	"github.com/pensieveco/pensieve/pkg/logger"
	"github.com/pensieveco/pensieve/pkg/memstore"
	"github.com/pensieveco/pensieve/pkg/repo"
)

// Config holds the collaborators for a Tracker.
type Config struct {
	// Store persists reinforcement records. Required.
	Store repo.Store

	// Memories provides read access to the external memory records, used to
	// bootstrap salience for never-accessed memories. Optional.
	Memories memstore.Store

	// Events receives a reinforced event after each explicit boost.
	// Optional; publishing is best-effort.
	Events eventstream.Publisher

	// Logger is optional; defaults to a nop logger.
	Logger *slog.Logger

	// Now overrides the wall clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Tracker manages reinforcement records for all memories.
type Tracker struct {
	mu       sync.Mutex
	store    repo.Store
	memories memstore.Store
	events   eventstream.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewTracker creates a reinforcement tracker.
func NewTracker(c Config) (*Tracker, error) {
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

	return &Tracker{
		store:    c.Store,
		memories: c.Memories,
		events:   c.Events,
		logger:   log.With("component", "reinforce"),
		now:      now,
	}, nil
}

// load fetches the record for id, materializing a default record if none
// exists yet. Unknown IDs are never an error on this layer.
func (t *Tracker) load(ctx context.Context, id string) (*Record, error) {
	doc, err := t.store.Get(ctx, repo.CollectionReinforcement, id)
	if errors.Is(err, repo.ErrNotFound) {
		return newRecord(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading reinforcement record %s: %w", id, err)
	}

	rec := newRecord(id)
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("decoding reinforcement record %s: %w", id, err)
	}
	if rec.LinkedBy == nil {
		rec.LinkedBy = []string{}
	}
	return rec, nil
}

// save persists the record. A failed save is fatal to the triggering call.
func (t *Tracker) save(ctx context.Context, rec *Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding reinforcement record %s: %w", rec.MemoryID, err)
	}
	if err := t.store.Upsert(ctx, repo.CollectionReinforcement, rec.MemoryID, doc); err != nil {
		return fmt.Errorf("persisting reinforcement record %s: %w", rec.MemoryID, err)
	}
	return nil
}

// RecordAccess records that a memory was retrieved. Every call is one access
// event. The observed initial salience is adopted the first time a
// non-default value shows up.
func (t *Tracker) RecordAccess(ctx context.Context, id string, observedInitialSalience float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx, id)
	if err != nil {
		return err
	}

	rec.AccessCount++
	now := t.now()
	rec.LastAccessed = &now
	if rec.InitialSalience == DefaultInitialSalience && observedInitialSalience != DefaultInitialSalience {
		rec.InitialSalience = observedInitialSalience
	}

	return t.save(ctx, rec)
}

// Boost explicitly raises a memory's salience. The accumulated boost is
// capped at MaxExplicitBoost. With lock set the memory also becomes
// decay-immune.
func (t *Tracker) Boost(ctx context.Context, id string, amount float64, lock bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx, id)
	if err != nil {
		return err
	}

	rec.ExplicitBoost = min(MaxExplicitBoost, rec.ExplicitBoost+amount)
	if lock {
		rec.DecayImmune = true
	}

	if err := t.save(ctx, rec); err != nil {
		return err
	}

	t.publish(ctx, &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeReinforced,
		EventID:       uuid.NewString(),
		EmittedAt:     t.now(),
		MemoryID:      id,
		Reinforcement: &eventstream.ReinforcementChange{
			Amount:      amount,
			Boost:       rec.ExplicitBoost,
			DecayImmune: rec.DecayImmune,
		},
	})

	return nil
}

// RecordFeedback adjusts the usefulness accumulator: helpful feedback adds a
// small increment, unhelpful feedback subtracts a larger one, floored at
// zero.
func (t *Tracker) RecordFeedback(ctx context.Context, id string, helpful bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx, id)
	if err != nil {
		return err
	}

	if helpful {
		rec.UsefulnessScore += helpfulDelta
	} else {
		rec.UsefulnessScore = max(0, rec.UsefulnessScore-unhelpfulDelta)
	}

	return t.save(ctx, rec)
}

// AddLink records that fromID holds a link to toID. Duplicate links are a
// no-op.
func (t *Tracker) AddLink(ctx context.Context, fromID, toID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx, toID)
	if err != nil {
		return err
	}

	if rec.linkedByContains(fromID) {
		return nil
	}

	rec.LinkedBy = append(rec.LinkedBy, fromID)
	return t.save(ctx, rec)
}

// RemoveLink removes fromID from toID's inbound-link set. Removing an absent
// link is a no-op.
func (t *Tracker) RemoveLink(ctx context.Context, fromID, toID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx, toID)
	if err != nil {
		return err
	}

	kept := rec.LinkedBy[:0]
	removed := false
	for _, id := range rec.LinkedBy {
		if id == fromID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return nil
	}

	rec.LinkedBy = kept
	return t.save(ctx, rec)
}

// RecordRepetition records that a near-duplicate of this memory was seen.
func (t *Tracker) RecordRepetition(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx, id)
	if err != nil {
		return err
	}

	rec.RepetitionCount++
	return t.save(ctx, rec)
}

// Salience computes the current dynamic salience for a memory.
//
// The result is pure given the stored record and wall-clock time: calling
// again with no intervening writes yields the same value up to elapsed-time
// drift.
func (t *Tracker) Salience(ctx context.Context, id string) (float64, error) {
	rec, err := t.load(ctx, id)
	if err != nil {
		return 0, err
	}
	return t.salience(ctx, rec), nil
}

// salience evaluates the formula for a loaded record.
func (t *Tracker) salience(ctx context.Context, rec *Record) float64 {
	// An unaccessed memory's salience is whatever it was encoded with, not
	// a computed value.
	if rec.AccessCount == 0 {
		if t.memories != nil {
			m, err := t.memories.Get(ctx, rec.MemoryID)
			if err == nil {
				return m.Salience
			}
			if !errors.Is(err, memstore.ErrNotFound) {
				t.logger.Debug("memory store lookup failed, using recorded initial salience",
					"memory_id", rec.MemoryID, "error", err)
			}
		}
		return rec.InitialSalience
	}

	accessBoost := min(accessBoostCap, float64(rec.AccessCount)*accessBoostPerHit)
	linkBoost := min(linkBoostCap, float64(len(rec.LinkedBy))*linkBoostPerLink)
	repetitionBoost := min(repetitionBoostCap, float64(rec.RepetitionCount)*repetitionBoostPer)
	usefulnessBoost := min(usefulnessCap, rec.UsefulnessScore)

	recencyFactor := 1.0
	if rec.LastAccessed != nil {
		days := t.daysSince(*rec.LastAccessed)
		recencyFactor = 1.0 / (1.0 + float64(days)*recencyDecayRate)
	}

	raw := rec.InitialSalience + accessBoost + linkBoost + repetitionBoost +
		rec.ExplicitBoost + usefulnessBoost
	if !rec.DecayImmune {
		raw *= recencyFactor
	}

	return min(1.0, max(0.0, raw))
}

// Inspect returns the full reinforcement detail for a memory, including the
// current computed salience.
func (t *Tracker) Inspect(ctx context.Context, id string) (*Detail, error) {
	rec, err := t.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Record:          *rec,
		CurrentSalience: t.salience(ctx, rec),
	}, nil
}

// IDs returns every memory ID with a reinforcement record.
func (t *Tracker) IDs(ctx context.Context) ([]string, error) {
	docs, err := t.store.All(ctx, repo.CollectionReinforcement)
	if err != nil {
		return nil, fmt.Errorf("listing reinforcement records: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DecayReport returns all non-decay-immune memories whose current salience
// is below threshold, ascending by salience.
func (t *Tracker) DecayReport(ctx context.Context, threshold float64) ([]FadingMemory, error) {
	docs, err := t.store.All(ctx, repo.CollectionReinforcement)
	if err != nil {
		return nil, fmt.Errorf("listing reinforcement records: %w", err)
	}

	var fading []FadingMemory
	for id, doc := range docs {
		rec := newRecord(id)
		if err := json.Unmarshal(doc, rec); err != nil {
			return nil, fmt.Errorf("decoding reinforcement record %s: %w", id, err)
		}
		if rec.DecayImmune {
			continue
		}

		current := t.salience(ctx, rec)
		if current < threshold {
			fading = append(fading, FadingMemory{
				ID:              id,
				CurrentSalience: current,
				InitialSalience: rec.InitialSalience,
				LastAccessed:    rec.LastAccessed,
				AccessCount:     rec.AccessCount,
			})
		}
	}

	sort.Slice(fading, func(i, j int) bool {
		return fading[i].CurrentSalience < fading[j].CurrentSalience
	})
	return fading, nil
}

// Stats summarizes the tracked population.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	docs, err := t.store.All(ctx, repo.CollectionReinforcement)
	if err != nil {
		return nil, fmt.Errorf("listing reinforcement records: %w", err)
	}

	stats := &Stats{Total: len(docs)}
	if stats.Total == 0 {
		return stats, nil
	}

	var salienceSum float64
	for id, doc := range docs {
		rec := newRecord(id)
		if err := json.Unmarshal(doc, rec); err != nil {
			return nil, fmt.Errorf("decoding reinforcement record %s: %w", id, err)
		}

		stats.TotalAccesses += rec.AccessCount
		salienceSum += t.salience(ctx, rec)
		if rec.DecayImmune {
			stats.DecayImmuneCount++
		}
		if rec.ExplicitBoost > 0 {
			stats.BoostedCount++
		}
	}

	stats.AvgAccessCount = float64(stats.TotalAccesses) / float64(stats.Total)
	stats.AvgSalience = salienceSum / float64(stats.Total)
	return stats, nil
}

// daysSince returns whole days elapsed since ts, truncated.
func (t *Tracker) daysSince(ts time.Time) int {
	return int(t.now().Sub(ts).Hours() / 24)
}

// publish sends an event best-effort; failures are logged, never returned.
func (t *Tracker) publish(ctx context.Context, event *eventstream.MemoryEvent) {
	if t.events == nil {
		return
	}
	if err := t.events.Publish(ctx, event); err != nil {
		t.logger.Warn("publishing memory event failed",
			"event_type", event.EventType, "memory_id", event.MemoryID, "error", err)
	}
}
