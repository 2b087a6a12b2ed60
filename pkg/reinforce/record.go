package reinforce

import "time"

// Salience formula constants. The caps keep any single signal from
// dominating the combined score.
const (
	// DefaultInitialSalience is assumed until a memory reports its own
	// encoded salience.
	DefaultInitialSalience = 0.5

	// DefaultBoostAmount is the increment applied by an explicit boost when
	// the caller does not specify one.
	DefaultBoostAmount = 0.2

	// MaxExplicitBoost caps accumulated manual reinforcement.
	MaxExplicitBoost = 0.5

	accessBoostPerHit  = 0.01
	accessBoostCap     = 0.15
	linkBoostPerLink   = 0.05
	linkBoostCap       = 0.20
	repetitionBoostPer = 0.02
	repetitionBoostCap = 0.10
	usefulnessCap      = 0.15
	helpfulDelta       = 0.03
	unhelpfulDelta     = 0.05
	recencyDecayRate   = 0.1
)

// Record holds the accumulated reinforcement signals for a single memory.
// Records are created lazily on first touch and persist for the memory's
// lifetime.
type Record struct {
	MemoryID string `json:"memory_id"`

	// AccessCount increments on every retrieval.
	AccessCount int `json:"access_count"`

	// LastAccessed is set on every retrieval; nil until first access.
	LastAccessed *time.Time `json:"last_accessed,omitempty"`

	// LinkedBy holds memory IDs with an inbound link to this one, no
	// duplicates.
	LinkedBy []string `json:"linked_by"`

	// RepetitionCount increments when a near-duplicate memory is observed.
	RepetitionCount int `json:"repetition_count"`

	// ExplicitBoost accumulates manual reinforcement, capped at
	// MaxExplicitBoost.
	ExplicitBoost float64 `json:"explicit_boost"`

	// DecayImmune memories never lose salience to elapsed time.
	DecayImmune bool `json:"decay_immune"`

	// UsefulnessScore accumulates feedback, floored at zero.
	UsefulnessScore float64 `json:"usefulness_score"`

	// InitialSalience is the memory's encoded salience, adopted the first
	// time a non-default value is observed.
	InitialSalience float64 `json:"initial_salience"`
}

// newRecord returns the default record materialized for an untouched memory.
func newRecord(id string) *Record {
	return &Record{
		MemoryID:        id,
		LinkedBy:        []string{},
		InitialSalience: DefaultInitialSalience,
	}
}

// linkedByContains reports whether id already appears in the LinkedBy set.
func (r *Record) linkedByContains(id string) bool {
	for _, existing := range r.LinkedBy {
		if existing == id {
			return true
		}
	}
	return false
}

// Detail is the full reinforcement picture for a memory, including the
// current computed salience.
type Detail struct {
	Record

	// CurrentSalience is the dynamic salience at inspection time.
	CurrentSalience float64 `json:"current_salience"`
}

// FadingMemory describes a memory whose computed salience has dropped below
// a decay-report threshold.
type FadingMemory struct {
	ID              string     `json:"id"`
	CurrentSalience float64    `json:"current_salience"`
	InitialSalience float64    `json:"initial_salience"`
	LastAccessed    *time.Time `json:"last_accessed,omitempty"`
	AccessCount     int        `json:"access_count"`
}

// Stats summarizes the tracked population.
type Stats struct {
	Total            int     `json:"total_memories"`
	TotalAccesses    int     `json:"total_accesses"`
	AvgAccessCount   float64 `json:"avg_access_count"`
	AvgSalience      float64 `json:"avg_salience"`
	DecayImmuneCount int     `json:"decay_immune_count"`
	BoostedCount     int     `json:"boosted_count"`
}
