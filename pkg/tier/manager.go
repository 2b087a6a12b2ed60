package tier

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

	"github.com/pensieveco/pensieve/pkg/archive"
	"github.com/pensieveco/pensieve/pkg/eventstream"
	"github.com/pensieveco/pensieve/pkg/logger"
	"github.com/pensieveco/pensieve/pkg/memstore"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/repo"
)

var (
	// ErrNotCold is returned when archiving a memory outside the cold tier.
	ErrNotCold = errors.New("verbatim can only be archived from the cold tier")

	// ErrNoVerbatim is returned when a memory has no verbatim payload to
	// archive.
	ErrNoVerbatim = errors.New("memory has no verbatim payload")

	// ErrNotArchived is returned when restoring a memory whose verbatim was
	// never archived.
	ErrNotArchived = errors.New("memory verbatim is not archived")
)

// Config holds the collaborators for a Manager.
type Config struct {
	// Store persists tier state. Required.
	Store repo.Store

	// Tracker supplies the reinforcement metrics placement runs on.
	// Required.
	Tracker *reinforce.Tracker

	// Memories is the live memory store, needed for archive and restore.
	// Optional; archive operations fail without it.
	Memories memstore.Store

	// Archive holds archived verbatim payloads. Optional; archive
	// operations fail without it.
	Archive archive.Store

	// Events receives a tier_changed event after each tier move. Optional;
	// publishing is best-effort.
	Events eventstream.Publisher

	// Logger is optional; defaults to a nop logger.
	Logger *slog.Logger

	// Now overrides the wall clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager owns tier placement and verbatim archival.
type Manager struct {
	mu       sync.Mutex
	store    repo.Store
	tracker  *reinforce.Tracker
	memories memstore.Store
	blobs    archive.Store
	events   eventstream.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a tier manager.
func NewManager(c Config) (*Manager, error) {
	if c.Store == nil {
		return nil, errors.New("state store is required")
	}
	if c.Tracker == nil {
		return nil, errors.New("reinforcement tracker is required")
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
		store:    c.Store,
		tracker:  c.Tracker,
		memories: c.Memories,
		blobs:    c.Archive,
		events:   c.Events,
		logger:   log.With("component", "tier"),
		now:      now,
	}, nil
}

// load fetches tier state for id, materializing the default for untracked
// memories.
func (m *Manager) load(ctx context.Context, id string) (*State, error) {
	doc, err := m.store.Get(ctx, repo.CollectionTiers, id)
	if errors.Is(err, repo.ErrNotFound) {
		return newState(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading tier state %s: %w", id, err)
	}

	state := newState(id)
	if err := json.Unmarshal(doc, state); err != nil {
		return nil, fmt.Errorf("decoding tier state %s: %w", id, err)
	}
	return state, nil
}

func (m *Manager) save(ctx context.Context, state *State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding tier state %s: %w", state.MemoryID, err)
	}
	if err := m.store.Upsert(ctx, repo.CollectionTiers, state.MemoryID, doc); err != nil {
		return fmt.Errorf("persisting tier state %s: %w", state.MemoryID, err)
	}
	return nil
}

// State returns the tier state for a memory. Untracked memories report the
// default hot placement.
func (m *Manager) State(ctx context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, id)
}

// SetTier moves a memory to the given tier directly.
func (m *Manager) SetTier(ctx context.Context, id string, tier Tier, reason string) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown tier %q", tier)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setTier(ctx, id, tier, reason)
}

// setTier performs the move under the caller's lock.
func (m *Manager) setTier(ctx context.Context, id string, tier Tier, reason string) error {
	state, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	oldTier := state.Tier
	now := m.now()
	state.Tier = tier
	state.TierChanged = &now
	if err := m.save(ctx, state); err != nil {
		return err
	}

	if oldTier != tier {
		m.publish(ctx, id, &eventstream.TierChange{
			OldTier: string(oldTier),
			NewTier: string(tier),
			Reason:  reason,
		})
		m.logger.Info("tier changed", "memory_id", id, "old", oldTier, "new", tier, "reason", reason)
	}
	return nil
}

// Lock sets or clears the tier lock. Locked memories never decay below warm.
func (m *Manager) Lock(ctx context.Context, id string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	state.Locked = locked
	return m.save(ctx, state)
}

// CalculateTier determines the tier a memory should occupy, with a
// human-readable reason. The state itself is not changed.
func (m *Manager) CalculateTier(ctx context.Context, id string) (Tier, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.load(ctx, id)
	if err != nil {
		return "", "", err
	}
	return m.calculateTier(ctx, state)
}

func (m *Manager) calculateTier(ctx context.Context, state *State) (Tier, string, error) {
	detail, err := m.tracker.Inspect(ctx, state.MemoryID)
	if err != nil {
		return "", "", err
	}

	// A locked memory sitting cold comes straight back up.
	if state.Locked && state.Tier == TierCold {
		return TierWarm, "locked (promoted from cold)", nil
	}

	salience := detail.CurrentSalience
	daysSince := neverAccessedDays
	if detail.LastAccessed != nil {
		daysSince = int(m.now().Sub(*detail.LastAccessed).Hours() / 24)
	}

	if detail.DecayImmune {
		if salience >= hotMinSalience {
			return TierHot, "decay-immune, high salience", nil
		}
		return TierWarm, "decay-immune", nil
	}

	if salience >= hotMinSalience && daysSince <= hotMaxStaleDays {
		return TierHot, fmt.Sprintf("high salience (%.2f), recent access", salience), nil
	}

	if salience >= warmMinSalience && daysSince <= warmMaxStaleDays {
		return TierWarm, fmt.Sprintf("moderate salience (%.2f)", salience), nil
	}

	// A recent burst of accesses promotes regardless of salience.
	if daysSince <= promotionWindowDays {
		if detail.AccessCount >= promoteToHotAccesses {
			return TierHot, fmt.Sprintf("high access count (%d)", detail.AccessCount), nil
		}
		if detail.AccessCount >= promoteToWarmAccesses {
			return TierWarm, fmt.Sprintf("moderate access count (%d)", detail.AccessCount), nil
		}
	}

	if state.Locked {
		return TierWarm, "locked (would be cold)", nil
	}
	return TierCold, fmt.Sprintf("low activity (%dd since access, %.2f salience)", daysSince, salience), nil
}

// UpdateTier recalculates one memory's placement and applies it.
func (m *Manager) UpdateTier(ctx context.Context, id string) (*Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTier(ctx, id)
}

func (m *Manager) updateTier(ctx context.Context, id string) (*Change, error) {
	state, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	newTier, reason, err := m.calculateTier(ctx, state)
	if err != nil {
		return nil, err
	}

	change := &Change{
		MemoryID: id,
		OldTier:  state.Tier,
		NewTier:  newTier,
		Reason:   reason,
	}
	if newTier == state.Tier {
		// Persist even without a move so the memory shows up in reports.
		if err := m.save(ctx, state); err != nil {
			return nil, err
		}
		return change, nil
	}

	if err := m.setTier(ctx, id, newTier, reason); err != nil {
		return nil, err
	}
	change.Changed = true
	return change, nil
}

// UpdateAllTiers recalculates every tracked memory and returns the moves.
func (m *Manager) UpdateAllTiers(ctx context.Context) ([]Change, error) {
	ids, err := m.tracker.IDs(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var changes []Change
	for _, id := range ids {
		change, err := m.updateTier(ctx, id)
		if err != nil {
			return nil, err
		}
		if change.Changed {
			changes = append(changes, *change)
		}
	}
	return changes, nil
}

// Report summarizes every tracked memory by tier, each tier sorted by
// descending salience.
func (m *Manager) Report(ctx context.Context) (*Report, error) {
	docs, err := m.store.All(ctx, repo.CollectionTiers)
	if err != nil {
		return nil, fmt.Errorf("listing tier states: %w", err)
	}

	report := &Report{
		Hot:  []ReportEntry{},
		Warm: []ReportEntry{},
		Cold: []ReportEntry{},
	}

	for id, doc := range docs {
		state := newState(id)
		if err := json.Unmarshal(doc, state); err != nil {
			return nil, fmt.Errorf("decoding tier state %s: %w", id, err)
		}

		detail, err := m.tracker.Inspect(ctx, id)
		if err != nil {
			return nil, err
		}

		entry := ReportEntry{
			ID:       id,
			Salience: detail.CurrentSalience,
			Accesses: detail.AccessCount,
			Locked:   state.Locked,
		}
		switch state.Tier {
		case TierHot:
			report.Hot = append(report.Hot, entry)
		case TierWarm:
			report.Warm = append(report.Warm, entry)
		case TierCold:
			report.Cold = append(report.Cold, entry)
		}
	}

	for _, entries := range [][]ReportEntry{report.Hot, report.Warm, report.Cold} {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Salience > entries[j].Salience
		})
	}

	report.Counts = map[string]int{
		"hot":   len(report.Hot),
		"warm":  len(report.Warm),
		"cold":  len(report.Cold),
		"total": len(report.Hot) + len(report.Warm) + len(report.Cold),
	}
	return report, nil
}

// publish sends a tier_changed event best-effort.
func (m *Manager) publish(ctx context.Context, memoryID string, change *eventstream.TierChange) {
	if m.events == nil {
		return
	}

	event := &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTierChanged,
		EventID:       uuid.NewString(),
		EmittedAt:     m.now(),
		MemoryID:      memoryID,
		Tier:          change,
	}
	if err := m.events.Publish(ctx, event); err != nil {
		m.logger.Warn("publishing memory event failed",
			"event_type", event.EventType, "memory_id", memoryID, "error", err)
	}
}
