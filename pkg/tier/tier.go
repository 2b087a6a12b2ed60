// Package tier manages hot/warm/cold storage tiers for memories.
//
// Tier placement follows reinforcement metrics: salience and recency keep a
// memory hot, moderate activity keeps it warm, and everything else drifts
// cold. Cold memories can have their verbatim payload archived out of the
// live store, leaving a placeholder with an archive handle until the memory
// is promoted and restored.
package tier

import "time"

// Tier is a storage tier.
type Tier string

const (
	// TierHot holds recent, frequently accessed, high-salience memories with
	// full verbatim detail live.
	TierHot Tier = "hot"

	// TierWarm holds moderately active memories.
	TierWarm Tier = "warm"

	// TierCold holds low-activity memories; their verbatim detail is a
	// candidate for archival.
	TierCold Tier = "cold"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierHot, TierWarm, TierCold:
		return true
	}
	return false
}

// Placement thresholds.
const (
	hotMaxStaleDays  = 7
	warmMaxStaleDays = 30
	hotMinSalience   = 0.5
	warmMinSalience  = 0.3

	promoteToHotAccesses  = 5
	promoteToWarmAccesses = 2
	promotionWindowDays   = 14

	// neverAccessedDays stands in for a missing last-access timestamp so
	// untouched memories compare as maximally stale.
	neverAccessedDays = 999
)

// State is the persisted tier state for a single memory.
type State struct {
	MemoryID string `json:"memory_id"`

	// Tier is the memory's current storage tier.
	Tier Tier `json:"tier"`

	// TierChanged is when the tier last moved; nil for memories still on
	// their initial placement.
	TierChanged *time.Time `json:"tier_changed,omitempty"`

	// VerbatimArchived marks that the live verbatim payload has been
	// replaced by an archive placeholder.
	VerbatimArchived bool `json:"verbatim_archived"`

	// ArchiveHandle locates the archived payload while VerbatimArchived.
	ArchiveHandle string `json:"archive_handle,omitempty"`

	// Locked memories never decay below warm.
	Locked bool `json:"locked"`
}

// newState returns the default state for an untracked memory. New memories
// start hot.
func newState(id string) *State {
	return &State{
		MemoryID: id,
		Tier:     TierHot,
	}
}

// Change describes the outcome of a tier recalculation.
type Change struct {
	MemoryID string `json:"memory_id"`
	OldTier  Tier   `json:"old_tier"`
	NewTier  Tier   `json:"new_tier"`
	Reason   string `json:"reason"`
	Changed  bool   `json:"changed"`
}

// ReportEntry is one memory's line in a tier report.
type ReportEntry struct {
	ID       string  `json:"id"`
	Salience float64 `json:"salience"`
	Accesses int     `json:"accesses"`
	Locked   bool    `json:"locked"`
}

// Report summarizes the tier population.
type Report struct {
	Hot    []ReportEntry  `json:"hot"`
	Warm   []ReportEntry  `json:"warm"`
	Cold   []ReportEntry  `json:"cold"`
	Counts map[string]int `json:"counts"`
}
