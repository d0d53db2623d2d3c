// Package routing implements the Router: Dijkstra's algorithm over a
// (node, transfer_count) state space, bounded by a maximum transfer
// count, with a live arrivals overlay applied to the first leg.
package routing

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/transitfusion/fusion_core/internal/cache"
	"github.com/transitfusion/fusion_core/internal/graph"
	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
)

var (
	ErrOriginNotFound      = errors.New("origin stop not found")
	ErrDestinationNotFound = errors.New("destination stop not found")
	ErrNoRoute             = errors.New("no route found within the transfer budget")
	ErrSameEndpoint        = errors.New("origin and destination are the same stop")
)

// Config carries the Router's tunables.
type Config struct {
	MaxTransfers int
}

// Router answers itinerary queries against a graph snapshot held by a
// graph.Holder, overlaying live arrivals from an arrivals cache onto the
// first leg of the chosen path.
type Router struct {
	holder *graph.Holder
	cache  cache.Cache
	cfg    Config
}

// NewRouter returns a Router. holder owns the in-memory graph snapshot;
// arrivalsCache supplies the live first-leg overlay.
func NewRouter(holder *graph.Holder, arrivalsCache cache.Cache, cfg Config) *Router {
	return &Router{holder: holder, cache: arrivalsCache, cfg: cfg}
}

// pathEdge is one edge along a found path.
type pathEdge struct {
	From, To, RouteID      string
	TravelTimeSeconds      int
	IsTransfer             bool
}

// FindItinerary resolves origin/destination (base or directional stop
// ids) to an Itinerary, trying every expansion pair and keeping the one
// with the smallest non-penalty travel-time sum. An id that is itself a
// graph node is used as given rather than expanded.
func (r *Router) FindItinerary(ctx context.Context, origin, destination string) (*models.Itinerary, error) {
	if origin == destination {
		return &models.Itinerary{Legs: []models.Leg{}, Transfers: 0, TotalEtaSeconds: 0, Alerts: []string{}}, nil
	}

	snap, err := r.holder.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph snapshot: %w", err)
	}

	origins := gtfsstatic.Expand(origin)
	if snap.HasNode(origin) {
		origins = []string{origin}
	}
	destinations := gtfsstatic.Expand(destination)
	if snap.HasNode(destination) {
		destinations = []string{destination}
	}

	if !anyNodeExists(snap, origins) {
		return nil, ErrOriginNotFound
	}
	if !anyNodeExists(snap, destinations) {
		return nil, ErrDestinationNotFound
	}

	var bestPath []pathEdge
	bestTravelSum := -1

	for _, o := range origins {
		for _, d := range destinations {
			if o == d {
				continue
			}
			path, ok := dijkstra(snap, o, d, r.cfg.MaxTransfers)
			if !ok {
				continue
			}
			travelSum := 0
			for _, e := range path {
				if !e.IsTransfer {
					travelSum += e.TravelTimeSeconds
				}
			}
			if bestPath == nil || travelSum < bestTravelSum {
				bestPath = path
				bestTravelSum = travelSum
			}
		}
	}

	if bestPath == nil {
		return nil, ErrNoRoute
	}

	return r.buildItinerary(ctx, bestPath)
}

// anyNodeExists reports whether any candidate id is a known graph node
// (either the source or the target of at least one edge).
func anyNodeExists(snap *graph.Snapshot, candidates []string) bool {
	for _, c := range candidates {
		if snap.HasNode(c) {
			return true
		}
	}
	return false
}

// dijkstraState is one entry in the search frontier.
type dijkstraState struct {
	node      string
	transfers int
	cost      int
	path      []pathEdge
	index     int
}

type stateQueue []*dijkstraState

func (q stateQueue) Len() int            { return len(q) }
func (q stateQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q stateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *stateQueue) Push(x interface{}) {
	s := x.(*dijkstraState)
	s.index = len(*q)
	*q = append(*q, s)
}
func (q *stateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// dijkstra runs the bounded search from origin to destination over the
// (node, transfer_count) state space. Returns the edge path and true on
// success.
func dijkstra(snap *graph.Snapshot, origin, destination string, maxTransfers int) ([]pathEdge, bool) {
	if origin == destination {
		return nil, false
	}

	pq := &stateQueue{}
	heap.Init(pq)
	heap.Push(pq, &dijkstraState{node: origin, transfers: 0, cost: 0})

	type visitKey struct {
		node      string
		transfers int
	}
	best := map[visitKey]int{{origin, 0}: 0}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*dijkstraState)

		if current.node == destination {
			return current.path, true
		}

		key := visitKey{current.node, current.transfers}
		if c, ok := best[key]; ok && c < current.cost {
			continue
		}

		for _, n := range snap.Neighbors(current.node) {
			nextTransfers := current.transfers
			if n.IsTransfer {
				nextTransfers++
			}
			if nextTransfers > maxTransfers {
				continue
			}

			edgeCost := n.TravelTimeSeconds + n.TransferPenaltySeconds
			nextCost := current.cost + edgeCost
			nextKey := visitKey{n.To, nextTransfers}

			if c, ok := best[nextKey]; ok && c <= nextCost {
				continue
			}
			best[nextKey] = nextCost

			nextPath := make([]pathEdge, len(current.path), len(current.path)+1)
			copy(nextPath, current.path)
			nextPath = append(nextPath, pathEdge{
				From:              current.node,
				To:                n.To,
				RouteID:           n.RouteID,
				TravelTimeSeconds: n.TravelTimeSeconds,
				IsTransfer:        n.IsTransfer,
			})

			heap.Push(pq, &dijkstraState{
				node:      n.To,
				transfers: nextTransfers,
				cost:      nextCost,
				path:      nextPath,
			})
		}
	}

	return nil, false
}

// buildItinerary drops transfer edges from the path, turns the remaining
// ride edges into legs, and overlays live arrivals onto the first leg.
func (r *Router) buildItinerary(ctx context.Context, path []pathEdge) (*models.Itinerary, error) {
	var rideEdges []pathEdge
	for _, e := range path {
		if !e.IsTransfer {
			rideEdges = append(rideEdges, e)
		}
	}

	legs := make([]models.Leg, 0, len(rideEdges))
	totalEta := 0

	for i, e := range rideEdges {
		isTransferLeg := i != 0

		boardIn := e.TravelTimeSeconds
		if i == 0 {
			if eta, ok := r.firstLegBoardEta(ctx, e); ok {
				boardIn = eta
			}
		}

		legs = append(legs, models.Leg{
			FromStopID:        e.From,
			ToStopID:          e.To,
			RouteID:           e.RouteID,
			BoardInSeconds:    boardIn,
			TravelTimeSeconds: e.TravelTimeSeconds,
			IsTransferLeg:     isTransferLeg,
		})
		totalEta += boardIn + e.TravelTimeSeconds
	}

	transfers := 0
	for _, leg := range legs {
		if leg.IsTransferLeg {
			transfers++
		}
	}

	return &models.Itinerary{
		Legs:            legs,
		Transfers:       transfers,
		TotalEtaSeconds: totalEta,
		Alerts:          []string{},
	}, nil
}

// firstLegBoardEta queries the arrivals cache across all four directions
// of the first leg's origin stop, gathers predictions matching the leg's
// route, and returns the minimum eta_seconds found.
func (r *Router) firstLegBoardEta(ctx context.Context, leg pathEdge) (int, bool) {
	if r.cache == nil {
		return 0, false
	}

	base := gtfsstatic.BaseStopID(leg.From)
	best := -1

	for _, dir := range []string{"N", "S", "E", "W"} {
		entry, err := r.cache.Get(ctx, base, dir)
		if err != nil || entry == nil {
			continue
		}
		for _, p := range entry.Arrivals {
			if p.RouteID != leg.RouteID {
				continue
			}
			if best == -1 || p.EtaSeconds < best {
				best = p.EtaSeconds
			}
		}
	}

	if best == -1 {
		return 0, false
	}
	return best, true
}
