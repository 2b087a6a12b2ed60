package linkgraph

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
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/repo"
)

const (
	// DefaultMaxPathDepth bounds the breadth-first path search.
	DefaultMaxPathDepth = 3

	// DefaultSuggestionLimit caps the number of link suggestions returned.
	DefaultSuggestionLimit = 5
)

// ErrSelfLink is returned when a link's source and target are the same memory.
var ErrSelfLink = errors.New("a memory cannot link to itself")

// Config holds the collaborators for a Manager.
type Config struct {
	// Store persists adjacency lists. Required.
	Store repo.Store

	// Tracker receives inbound-link notifications so linked memories gain
	// salience. Optional.
	Tracker *reinforce.Tracker

	// Events receives a linked event after each created link. Optional;
	// publishing is best-effort.
	Events eventstream.Publisher

	// Logger is optional; defaults to a nop logger.
	Logger *slog.Logger

	// Now overrides the wall clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager owns the link graph.
type Manager struct {
	mu      sync.Mutex
	store   repo.Store
	tracker *reinforce.Tracker
	events  eventstream.Publisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a link graph manager.
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
		store:   c.Store,
		tracker: c.Tracker,
		events:  c.Events,
		logger:  log.With("component", "linkgraph"),
		now:     now,
	}, nil
}

// adjacency is the persisted link document for one memory: the edges it
// created and the edges pointing at it.
type adjacency struct {
	Outbound []Link `json:"outbound"`
	Inbound  []Link `json:"inbound"`
}

func (a adjacency) empty() bool {
	return len(a.Outbound) == 0 && len(a.Inbound) == 0
}

// load fetches the adjacency document for id; absent memories have no links.
func (m *Manager) load(ctx context.Context, id string) (adjacency, error) {
	doc, err := m.store.Get(ctx, repo.CollectionLinks, id)
	if errors.Is(err, repo.ErrNotFound) {
		return adjacency{}, nil
	}
	if err != nil {
		return adjacency{}, fmt.Errorf("loading links for %s: %w", id, err)
	}

	var adj adjacency
	if err := json.Unmarshal(doc, &adj); err != nil {
		return adjacency{}, fmt.Errorf("decoding links for %s: %w", id, err)
	}
	return adj, nil
}

// save persists an adjacency document, deleting it when both lists empty.
func (m *Manager) save(ctx context.Context, id string, adj adjacency) error {
	if adj.empty() {
		if err := m.store.Delete(ctx, repo.CollectionLinks, id); err != nil {
			return fmt.Errorf("deleting links for %s: %w", id, err)
		}
		return nil
	}

	doc, err := json.Marshal(adj)
	if err != nil {
		return fmt.Errorf("encoding links for %s: %w", id, err)
	}
	if err := m.store.Upsert(ctx, repo.CollectionLinks, id, doc); err != nil {
		return fmt.Errorf("persisting links for %s: %w", id, err)
	}
	return nil
}

// loadAll fetches every adjacency document.
func (m *Manager) loadAll(ctx context.Context) (map[string]adjacency, error) {
	docs, err := m.store.All(ctx, repo.CollectionLinks)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}

	all := make(map[string]adjacency, len(docs))
	for id, doc := range docs {
		var adj adjacency
		if err := json.Unmarshal(doc, &adj); err != nil {
			return nil, fmt.Errorf("decoding links for %s: %w", id, err)
		}
		all[id] = adj
	}
	return all, nil
}

// appendEdge adds edge unless an edge with the same endpoints and type is
// already present. The second return reports whether the list grew.
func appendEdge(links []Link, edge Link) ([]Link, bool) {
	for _, l := range links {
		if l.SourceID == edge.SourceID && l.TargetID == edge.TargetID && l.Type == edge.Type {
			return links, false
		}
	}
	return append(links, edge), true
}

// dropEdges removes every edge matching the predicate and reports how many
// came off.
func dropEdges(links []Link, match func(Link) bool) ([]Link, int) {
	kept := links[:0]
	dropped := 0
	for _, l := range links {
		if match(l) {
			dropped++
			continue
		}
		kept = append(kept, l)
	}
	return kept, dropped
}

func hasEdgeTo(links []Link, targetID string) bool {
	for _, l := range links {
		if l.TargetID == targetID {
			return true
		}
	}
	return false
}

// AddOptions tunes link creation. The zero value creates an unannotated
// bidirectional link.
type AddOptions struct {
	// Note annotates the forward edge. The derived inverse carries the
	// same note behind an "[inverse]" marker.
	Note string

	// OneWay skips the derived inverse edge and the reverse reinforcement
	// credit.
	OneWay bool
}

func inverseNote(note string) string {
	if note == "" {
		return "[inverse link]"
	}
	return "[inverse] " + note
}

// AddLink creates a typed link between two memories: the forward edge on
// both endpoints' lists and, unless the link is one-way, a derived inverse
// edge the other way. Edges that already exist with the same endpoints and
// type are not duplicated.
func (m *Manager) AddLink(ctx context.Context, fromID, toID string, linkType LinkType, opts AddOptions) error {
	if fromID == toID {
		return ErrSelfLink
	}
	if !linkType.Valid() {
		return fmt.Errorf("unknown link type %q", linkType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, err := m.load(ctx, fromID)
	if err != nil {
		return err
	}
	to, err := m.load(ctx, toID)
	if err != nil {
		return err
	}

	now := m.now()
	forward := Link{
		SourceID:  fromID,
		TargetID:  toID,
		Type:      linkType,
		Note:      opts.Note,
		CreatedAt: now,
	}

	var created bool
	from.Outbound, created = appendEdge(from.Outbound, forward)
	to.Inbound, _ = appendEdge(to.Inbound, forward)

	if !opts.OneWay {
		inverse := Link{
			SourceID:  toID,
			TargetID:  fromID,
			Type:      linkType.Inverse(),
			Note:      inverseNote(opts.Note),
			Derived:   true,
			CreatedAt: now,
		}
		to.Outbound, _ = appendEdge(to.Outbound, inverse)
		from.Inbound, _ = appendEdge(from.Inbound, inverse)
	}

	if err := m.save(ctx, fromID, from); err != nil {
		return err
	}
	if err := m.save(ctx, toID, to); err != nil {
		return err
	}

	if m.tracker != nil {
		if err := m.tracker.AddLink(ctx, fromID, toID); err != nil {
			return err
		}
		if !opts.OneWay {
			if err := m.tracker.AddLink(ctx, toID, fromID); err != nil {
				return err
			}
		}
	}

	if created {
		m.publish(ctx, fromID, &eventstream.LinkCreated{
			SourceID:      fromID,
			TargetID:      toID,
			LinkType:      string(linkType),
			Bidirectional: !opts.OneWay,
		})
	}

	m.logger.Debug("linked memories",
		"from", fromID, "to", toID, "type", linkType, "one_way", opts.OneWay)
	return nil
}

// RemoveLink deletes links between two memories. The empty link type removes
// every forward edge from the source to the target; a concrete type removes
// only that edge. Derived inverse edges between the pair come off regardless
// of type, and when a side ends up with no edge toward the other, its
// inbound-link reinforcement is reverted. The return reports whether a
// forward edge was removed.
func (m *Manager) RemoveLink(ctx context.Context, fromID, toID string, linkType LinkType) (bool, error) {
	if linkType != "" && !linkType.Valid() {
		return false, fmt.Errorf("unknown link type %q", linkType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, err := m.load(ctx, fromID)
	if err != nil {
		return false, err
	}
	to, err := m.load(ctx, toID)
	if err != nil {
		return false, err
	}

	typeMatches := func(t LinkType) bool {
		return linkType == "" || t == linkType
	}

	var n, fromDropped, toDropped int
	from.Outbound, n = dropEdges(from.Outbound, func(l Link) bool {
		return l.TargetID == toID && typeMatches(l.Type)
	})
	removed := n > 0
	fromDropped += n
	to.Inbound, n = dropEdges(to.Inbound, func(l Link) bool {
		return l.SourceID == fromID && typeMatches(l.Type)
	})
	toDropped += n

	// Inverse edges between the pair come off whatever their type.
	to.Outbound, n = dropEdges(to.Outbound, func(l Link) bool {
		return l.TargetID == fromID
	})
	toDropped += n
	from.Inbound, n = dropEdges(from.Inbound, func(l Link) bool {
		return l.SourceID == toID
	})
	fromDropped += n

	if fromDropped > 0 {
		if err := m.save(ctx, fromID, from); err != nil {
			return false, err
		}
	}
	if toDropped > 0 {
		if err := m.save(ctx, toID, to); err != nil {
			return false, err
		}
	}

	if m.tracker != nil && fromDropped+toDropped > 0 {
		if !hasEdgeTo(from.Outbound, toID) {
			if err := m.tracker.RemoveLink(ctx, fromID, toID); err != nil {
				return false, err
			}
		}
		if !hasEdgeTo(to.Outbound, fromID) {
			if err := m.tracker.RemoveLink(ctx, toID, fromID); err != nil {
				return false, err
			}
		}
	}

	m.logger.Debug("unlinked memories",
		"from", fromID, "to", toID, "type", linkType, "removed", removed)
	return removed, nil
}

// Related returns every memory connected to id, tagged with the direction
// the edge runs, optionally filtered by link type. The empty type matches
// everything.
func (m *Manager) Related(ctx context.Context, id string, linkType LinkType) ([]Neighbor, error) {
	if linkType != "" && !linkType.Valid() {
		return nil, fmt.Errorf("unknown link type %q", linkType)
	}

	adj, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var neighbors []Neighbor
	for _, l := range adj.Outbound {
		if linkType != "" && l.Type != linkType {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			MemoryID:  l.TargetID,
			Direction: DirectionOutbound,
			Type:      l.Type,
			Note:      l.Note,
			Derived:   l.Derived,
		})
	}
	for _, l := range adj.Inbound {
		if linkType != "" && l.Type != linkType {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			MemoryID:  l.SourceID,
			Direction: DirectionInbound,
			Type:      l.Type,
			Note:      l.Note,
			Derived:   l.Derived,
		})
	}
	return neighbors, nil
}

// neighborIDs collects the distinct memories adjacent to adj, in either
// direction, in lexical order.
func neighborIDs(adj adjacency) []string {
	set := make(map[string]bool, len(adj.Outbound)+len(adj.Inbound))
	for _, l := range adj.Outbound {
		set[l.TargetID] = true
	}
	for _, l := range adj.Inbound {
		set[l.SourceID] = true
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FindPath searches breadth-first for a chain of links between two memories,
// up to maxDepth hops, treating every edge as traversable in both directions.
// A zero maxDepth uses DefaultMaxPathDepth; a negative one is rejected. The
// returned path includes both endpoints; nil means no path within the bound.
func (m *Manager) FindPath(ctx context.Context, fromID, toID string, maxDepth int) ([]string, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", maxDepth)
	}
	if maxDepth == 0 {
		maxDepth = DefaultMaxPathDepth
	}
	if fromID == toID {
		return []string{fromID}, nil
	}

	all, err := m.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	ids, index, edges := buildIndex(all)

	src, ok := index[fromID]
	if !ok {
		return nil, nil
	}
	dst, ok := index[toID]
	if !ok {
		return nil, nil
	}

	type node struct {
		at    int
		depth int
	}

	parent := make([]int, len(ids))
	for i := range parent {
		parent[i] = -1
	}
	parent[src] = src
	queue := []node{{at: src}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}

		for _, next := range edges[cur.at] {
			if parent[next] != -1 {
				continue
			}
			parent[next] = cur.at

			if next == dst {
				var path []string
				for at := dst; ; at = parent[at] {
					path = append(path, ids[at])
					if at == src {
						break
					}
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, nil
			}

			queue = append(queue, node{at: next, depth: cur.depth + 1})
		}
	}

	return nil, nil
}

// buildIndex interns memory IDs into integers and flattens the adjacency
// documents into undirected integer edge lists, so the search walks slices
// instead of string-keyed maps. Neighbor order is lexical for deterministic
// paths.
func buildIndex(all map[string]adjacency) ([]string, map[string]int, [][]int) {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	// Edge endpoints without a document of their own still get a slot.
	neighbors := make([][]string, len(ids))
	for i, id := range ids {
		neighbors[i] = neighborIDs(all[id])
		for _, n := range neighbors[i] {
			if _, ok := index[n]; !ok {
				index[n] = len(ids)
				ids = append(ids, n)
				neighbors = append(neighbors, nil)
			}
		}
	}

	edges := make([][]int, len(ids))
	for i, ns := range neighbors {
		if len(ns) == 0 {
			continue
		}
		edges[i] = make([]int, len(ns))
		for j, n := range ns {
			edges[i][j] = index[n]
		}
	}
	return ids, index, edges
}

// SuggestLinks proposes link candidates for a memory: every known memory
// that is not already a neighbor but shares at least one neighbor with it.
// Each shared neighbor counts once however many edges reach it; candidates
// rank by how many distinct neighbors they share.
func (m *Manager) SuggestLinks(ctx context.Context, id string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	all, err := m.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	linked := make(map[string]bool)
	for _, neighbor := range neighborIDs(all[id]) {
		linked[neighbor] = true
	}

	var suggestions []Suggestion
	for candidate, adj := range all {
		if candidate == id || linked[candidate] {
			continue
		}

		var shared []string
		for _, neighbor := range neighborIDs(adj) {
			if linked[neighbor] {
				shared = append(shared, neighbor)
			}
		}
		if len(shared) == 0 {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			MemoryID:        candidate,
			SharedNeighbors: len(shared),
			Via:             shared,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].SharedNeighbors != suggestions[j].SharedNeighbors {
			return suggestions[i].SharedNeighbors > suggestions[j].SharedNeighbors
		}
		return suggestions[i].MemoryID < suggestions[j].MemoryID
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// Graph returns every linked memory's outbound edges.
func (m *Manager) Graph(ctx context.Context) (map[string][]Link, error) {
	all, err := m.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	graph := make(map[string][]Link, len(all))
	for id, adj := range all {
		graph[id] = adj.Outbound
	}
	return graph, nil
}

// publish sends a linked event best-effort.
func (m *Manager) publish(ctx context.Context, memoryID string, link *eventstream.LinkCreated) {
	if m.events == nil {
		return
	}

	event := &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeLinked,
		EventID:       uuid.NewString(),
		EmittedAt:     m.now(),
		MemoryID:      memoryID,
		Link:          link,
	}
	if err := m.events.Publish(ctx, event); err != nil {
		m.logger.Warn("publishing memory event failed",
			"event_type", event.EventType, "memory_id", memoryID, "error", err)
	}
}
