// Package eventstream defines memory lifecycle events and the publisher
// interface for streaming them to external consumers.
//
// Events are emitted after the triggering write is durable and publishing is
// best-effort: a failed publish is logged by the caller, never surfaced to
// the operation that produced the event.
package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTierChanged is emitted when a memory moves between storage tiers.
	EventTypeTierChanged = "pensieve.memory.tier_changed"

	// EventTypeReinforced is emitted when a memory receives an explicit boost.
	EventTypeReinforced = "pensieve.memory.reinforced"

	// EventTypeLinked is emitted when a link between two memories is created.
	EventTypeLinked = "pensieve.memory.linked"
)

// MemoryEvent is a transport-neutral event payload for a memory lifecycle
// transition.
type MemoryEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	MemoryID      string    `json:"memory_id"`

	// Tier transition detail, set for EventTypeTierChanged.
	Tier *TierChange `json:"tier,omitempty"`

	// Reinforcement detail, set for EventTypeReinforced.
	Reinforcement *ReinforcementChange `json:"reinforcement,omitempty"`

	// Link detail, set for EventTypeLinked.
	Link *LinkCreated `json:"link,omitempty"`
}

// TierChange captures a storage tier transition.
type TierChange struct {
	OldTier string `json:"old_tier"`
	NewTier string `json:"new_tier"`
	Reason  string `json:"reason"`
}

// ReinforcementChange captures an explicit salience boost.
type ReinforcementChange struct {
	Amount      float64 `json:"amount"`
	Boost       float64 `json:"boost"`
	DecayImmune bool    `json:"decay_immune"`
}

// LinkCreated captures a new link between two memories.
type LinkCreated struct {
	SourceID      string `json:"source_id"`
	TargetID      string `json:"target_id"`
	LinkType      string `json:"link_type"`
	Bidirectional bool   `json:"bidirectional"`
}
