// Package linkgraph maintains typed, bidirectional links between memories.
//
// Each memory carries two edge lists: the links it created (outbound) and
// the links pointing at it (inbound). Creating a link writes the forward
// edge on both endpoints and, unless the link is one-way, a derived inverse
// edge the other way, so either memory's lists are the complete picture of
// its connections.
package linkgraph

import (
	"fmt"
	"time"
)

// LinkType classifies the relationship a link expresses.
type LinkType string

const (
	// LinkElaborates marks the source as adding detail to the target.
	LinkElaborates LinkType = "elaborates"

	// LinkSupersedes marks the source as replacing the target.
	LinkSupersedes LinkType = "supersedes"

	// LinkCausedBy marks the target as the cause of the source.
	LinkCausedBy LinkType = "caused_by"

	// LinkLeadsTo marks the source as the cause of the target.
	LinkLeadsTo LinkType = "leads_to"

	// LinkContradicts marks the two memories as in conflict.
	LinkContradicts LinkType = "contradicts"

	// LinkRelatesTo is the generic association.
	LinkRelatesTo LinkType = "relates_to"
)

// inverses maps each link type to the type stored on the target's side.
// Directional types with no natural reverse fall back to relates_to.
var inverses = map[LinkType]LinkType{
	LinkElaborates:  LinkRelatesTo,
	LinkSupersedes:  LinkRelatesTo,
	LinkCausedBy:    LinkLeadsTo,
	LinkLeadsTo:     LinkCausedBy,
	LinkContradicts: LinkContradicts,
	LinkRelatesTo:   LinkRelatesTo,
}

// Valid reports whether t is a known link type.
func (t LinkType) Valid() bool {
	_, ok := inverses[t]
	return ok
}

// Inverse returns the link type stored on the target's side of the pair.
func (t LinkType) Inverse() LinkType {
	inv, ok := inverses[t]
	if !ok {
		return LinkRelatesTo
	}
	return inv
}

// ParseLinkType validates a raw link type string.
func ParseLinkType(raw string) (LinkType, error) {
	t := LinkType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown link type %q", raw)
	}
	return t, nil
}

// Link is one edge in a memory's adjacency lists.
type Link struct {
	// SourceID is the memory the edge leaves.
	SourceID string `json:"source_id"`

	// TargetID is the memory this edge points at.
	TargetID string `json:"target_id"`

	// Type is the relationship the edge expresses.
	Type LinkType `json:"link_type"`

	// Note is a free-form annotation. Derived inverse edges carry the
	// original note behind an "[inverse]" marker.
	Note string `json:"note,omitempty"`

	// Derived marks edges written automatically as the inverse of a link
	// created on the other memory.
	Derived bool `json:"derived,omitempty"`

	// CreatedAt is when the edge pair was created.
	CreatedAt time.Time `json:"created_at"`
}

// Direction says which side of an edge a memory sits on.
type Direction string

const (
	// DirectionOutbound marks an edge the memory created.
	DirectionOutbound Direction = "outbound"

	// DirectionInbound marks an edge pointing at the memory.
	DirectionInbound Direction = "inbound"
)

// Neighbor is one connected memory as seen from a particular memory,
// tagged with the direction the edge runs.
type Neighbor struct {
	// MemoryID is the memory on the other end of the edge.
	MemoryID string `json:"memory_id"`

	// Direction says whether the edge leaves or enters the memory.
	Direction Direction `json:"direction"`

	// Type is the relationship the edge expresses.
	Type LinkType `json:"link_type"`

	// Note is the edge's annotation, if any.
	Note string `json:"note,omitempty"`

	// Derived marks automatically written inverse edges.
	Derived bool `json:"derived,omitempty"`
}

// Suggestion is a candidate link produced by the common-neighbor heuristic.
type Suggestion struct {
	// MemoryID is the suggested link target.
	MemoryID string `json:"memory_id"`

	// SharedNeighbors counts distinct memories linked to both sides.
	SharedNeighbors int `json:"shared_neighbors"`

	// Via lists the shared neighbors the suggestion rests on.
	Via []string `json:"via"`
}
