// Package graph implements the Graph Compiler (turning the static feed
// into a weighted station graph) and the in-memory snapshot the Router
// reads from.
package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
	"github.com/transitfusion/fusion_core/internal/store"
)

// BuilderConfig carries the tunables the compiler needs: default edge
// weight for unparsable times, and the min/max declared-transfer
// penalties.
type BuilderConfig struct {
	DefaultEdgeSeconds int
	TransferPenaltyMin int
	TransferPenaltyMax int
}

// Builder is the Graph Compiler. It reads the static feed from a Store and
// writes the compiled edge set back to the same Store.
type Builder struct {
	st  store.Store
	cfg BuilderConfig
}

// NewBuilder returns a Builder backed by st.
func NewBuilder(st store.Store, cfg BuilderConfig) *Builder {
	return &Builder{st: st, cfg: cfg}
}

// edgeKey is the natural key of a graph edge.
type edgeKey struct {
	from, to, route string
}

// Compile runs the three edge-generation phases and commits the result.
// It returns the number of edges committed.
func (b *Builder) Compile(ctx context.Context) (int, error) {
	stopTimesByTrip, err := b.st.StopTimesByTrip(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading stop_times: %w", err)
	}

	trips, err := b.st.Trips(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading trips: %w", err)
	}
	tripRoutes := make(map[string]string, len(trips))
	for _, t := range trips {
		tripRoutes[t.TripID] = t.RouteID
	}

	transfers, err := b.st.Transfers(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading transfers: %w", err)
	}

	rideEdges := b.buildRideEdges(stopTimesByTrip, tripRoutes)
	transferEdges := b.buildDeclaredTransferEdges(transfers)
	platformEdges := b.buildPlatformTransferEdges(rideEdges)

	all := make([]models.GraphEdge, 0, len(rideEdges)+len(transferEdges)+len(platformEdges))
	all = append(all, rideEdges...)
	all = append(all, transferEdges...)
	all = append(all, platformEdges...)

	if err := b.st.ReplaceGraphEdges(ctx, all); err != nil {
		return 0, fmt.Errorf("committing graph edges: %w", err)
	}

	return len(all), nil
}

// buildRideEdges groups stop_times by trip (sorted by stop_sequence) and
// emits one candidate edge per adjacent stop pair, labeled by the trip's
// route. Duplicate (from, to, route) candidates across trips are
// collapsed by arithmetic mean, rounded down.
func (b *Builder) buildRideEdges(stopTimesByTrip map[string][]models.StopTime, tripRoutes map[string]string) []models.GraphEdge {
	type accum struct {
		sum, count int
	}
	candidates := make(map[edgeKey]*accum)

	for tripID, times := range stopTimesByTrip {
		routeID, ok := tripRoutes[tripID]
		if !ok {
			continue
		}

		sorted := make([]models.StopTime, len(times))
		copy(sorted, times)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].StopSequence < sorted[j].StopSequence })

		for i := 0; i+1 < len(sorted); i++ {
			from := sorted[i]
			to := sorted[i+1]

			weight := b.cfg.DefaultEdgeSeconds
			depSec, depErr := gtfsstatic.ParseTimeToSeconds(from.DepartureTime)
			arrSec, arrErr := gtfsstatic.ParseTimeToSeconds(to.ArrivalTime)
			if depErr == nil && arrErr == nil {
				diff := arrSec - depSec
				if diff < 60 {
					diff = 60
				}
				weight = diff
			}

			key := edgeKey{from: from.StopID, to: to.StopID, route: routeID}
			a, ok := candidates[key]
			if !ok {
				a = &accum{}
				candidates[key] = a
			}
			a.sum += weight
			a.count++
		}
	}

	edges := make([]models.GraphEdge, 0, len(candidates))
	for key, a := range candidates {
		mean := a.sum / a.count // integer division rounds down
		edges = append(edges, models.GraphEdge{
			FromStopID:        key.from,
			ToStopID:          key.to,
			RouteID:           key.route,
			TravelTimeSeconds: mean,
			IsTransfer:        false,
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromStopID != edges[j].FromStopID {
			return edges[i].FromStopID < edges[j].FromStopID
		}
		if edges[i].ToStopID != edges[j].ToStopID {
			return edges[i].ToStopID < edges[j].ToStopID
		}
		return edges[i].RouteID < edges[j].RouteID
	})

	return edges
}

// buildDeclaredTransferEdges expands each declared transfer row into
// every ordered pair of directional variants, per the candidates()
// expansion rule. Pruning against the live graph is deferred to
// snapshot-load time.
func (b *Builder) buildDeclaredTransferEdges(transfers []models.Transfer) []models.GraphEdge {
	var edges []models.GraphEdge

	for _, t := range transfers {
		if t.TransferType == models.TransferNotPossible || t.FromStopID == t.ToStopID {
			continue
		}

		penalty := b.cfg.TransferPenaltyMax
		if t.MinTransferTime > 0 {
			penalty = t.MinTransferTime
		} else if t.TransferType == models.TransferRecommended || t.TransferType == models.TransferTimed {
			penalty = b.cfg.TransferPenaltyMin
		}

		fromCandidates := gtfsstatic.Expand(t.FromStopID)
		toCandidates := gtfsstatic.Expand(t.ToStopID)

		for _, from := range fromCandidates {
			for _, to := range toCandidates {
				if from == to {
					continue
				}
				edges = append(edges, models.GraphEdge{
					FromStopID:             from,
					ToStopID:               to,
					RouteID:                models.RouteTransfer,
					TravelTimeSeconds:      0,
					IsTransfer:             true,
					TransferPenaltySeconds: penalty,
				})
			}
		}
	}

	return edges
}

// buildPlatformTransferEdges enumerates, for each base station id, the
// subset of its directional platforms that already appear as a
// consecutive-edge source, and emits an ordered-pair edge between every
// two of them.
func (b *Builder) buildPlatformTransferEdges(rideEdges []models.GraphEdge) []models.GraphEdge {
	sourcesByBase := make(map[string]map[string]bool)
	for _, e := range rideEdges {
		base := gtfsstatic.BaseStopID(e.FromStopID)
		if sourcesByBase[base] == nil {
			sourcesByBase[base] = make(map[string]bool)
		}
		sourcesByBase[base][e.FromStopID] = true
	}

	var edges []models.GraphEdge
	for _, platforms := range sourcesByBase {
		var list []string
		for p := range platforms {
			list = append(list, p)
		}
		sort.Strings(list)

		for _, from := range list {
			for _, to := range list {
				if from == to {
					continue
				}
				edges = append(edges, models.GraphEdge{
					FromStopID:             from,
					ToStopID:               to,
					RouteID:                models.RoutePlatformTransfer,
					TravelTimeSeconds:      0,
					IsTransfer:             true,
					TransferPenaltySeconds: b.cfg.TransferPenaltyMax,
				})
			}
		}
	}

	return edges
}
