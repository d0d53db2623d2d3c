package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/transitfusion/fusion_core/internal/models"
)

func TestNewSnapshotPrunesDanglingTransferEdges(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R", TravelTimeSeconds: 300},
		// bW has no ride edge anywhere in the graph — a declared transfer
		// to it is dangling and must not surface as a node.
		{FromStopID: "B", ToStopID: "bW", RouteID: models.RouteTransfer, IsTransfer: true, TransferPenaltySeconds: 180},
	}

	snap := newSnapshot(edges)

	assert.True(t, snap.HasNode("A"))
	assert.True(t, snap.HasNode("B"))
	assert.False(t, snap.HasNode("bW"))
	assert.Empty(t, snap.Neighbors("B")) // the dangling edge itself is dropped
}

func TestNewSnapshotKeepsTransferEdgeBetweenRealStops(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R1", TravelTimeSeconds: 300},
		{FromStopID: "B", ToStopID: "C", RouteID: "R2", TravelTimeSeconds: 240},
		{FromStopID: "B", ToStopID: "C", RouteID: models.RouteTransfer, IsTransfer: true, TransferPenaltySeconds: 180},
	}

	snap := newSnapshot(edges)

	assert.True(t, snap.HasNode("C"))
	assert.Len(t, snap.Neighbors("B"), 2)
}
