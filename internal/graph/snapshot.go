package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/transitfusion/fusion_core/internal/models"
	"github.com/transitfusion/fusion_core/internal/store"
)

// Neighbor is one outgoing adjacency-list entry.
type Neighbor struct {
	To                     string
	RouteID                string
	TravelTimeSeconds      int
	IsTransfer             bool
	TransferPenaltySeconds int
}

// Snapshot is an immutable, in-memory adjacency-map view of the compiled
// graph. It is never mutated in place: a reload builds a brand new
// Snapshot and the holder swaps its pointer, so a search already in
// flight keeps using the snapshot it started with.
type Snapshot struct {
	adjacency map[string][]Neighbor
	nodes     map[string]bool
}

// newSnapshot builds the adjacency map and node set from a compiled edge
// list. Declared-transfer edges are pruned here if either endpoint is not
// a real platform — one actually touched by a ride edge — so a dangling
// transfer target from transfers.txt never becomes a reachable node.
func newSnapshot(edges []models.GraphEdge) *Snapshot {
	realStops := make(map[string]bool, len(edges)*2)
	for _, e := range edges {
		if !e.IsTransfer {
			realStops[e.FromStopID] = true
			realStops[e.ToStopID] = true
		}
	}

	adjacency := make(map[string][]Neighbor, len(edges))
	nodes := make(map[string]bool, len(edges)*2)
	for _, e := range edges {
		if e.IsTransfer && (!realStops[e.FromStopID] || !realStops[e.ToStopID]) {
			continue
		}
		adjacency[e.FromStopID] = append(adjacency[e.FromStopID], Neighbor{
			To:                     e.ToStopID,
			RouteID:                e.RouteID,
			TravelTimeSeconds:      e.TravelTimeSeconds,
			IsTransfer:             e.IsTransfer,
			TransferPenaltySeconds: e.TransferPenaltySeconds,
		})
		nodes[e.FromStopID] = true
		nodes[e.ToStopID] = true
	}
	return &Snapshot{adjacency: adjacency, nodes: nodes}
}

// Neighbors returns the outgoing edges of node, or nil if it has none.
func (s *Snapshot) Neighbors(node string) []Neighbor {
	return s.adjacency[node]
}

// HasNode reports whether node appears anywhere in the graph, either as
// the source or the target of at least one edge.
func (s *Snapshot) HasNode(node string) bool {
	return s.nodes[node]
}

// Holder owns the current Snapshot, loading it lazily from the Static
// Store on first use and supporting explicit invalidation, mirroring the
// "singleton in-memory graph, loaded on demand, reloaded by pointer
// replacement" ownership model this codebase uses for its routing graph.
type Holder struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	st       store.Store
}

// NewHolder returns a Holder that loads from st.
func NewHolder(st store.Store) *Holder {
	return &Holder{st: st}
}

// Get returns the current snapshot, loading it from the store if this is
// the first call (or if Invalidate was called since the last load).
func (h *Holder) Get(ctx context.Context) (*Snapshot, error) {
	h.mu.RLock()
	snap := h.snapshot
	h.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snapshot != nil {
		return h.snapshot, nil
	}

	edges, err := h.st.GraphEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph edges: %w", err)
	}

	h.snapshot = newSnapshot(edges)
	return h.snapshot, nil
}

// Invalidate clears the cached snapshot; the next Get reloads from the
// store.
func (h *Holder) Invalidate() {
	h.mu.Lock()
	h.snapshot = nil
	h.mu.Unlock()
}
