package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
	"github.com/transitfusion/fusion_core/internal/store"
)

func defaultConfig() BuilderConfig {
	return BuilderConfig{DefaultEdgeSeconds: 120, TransferPenaltyMin: 180, TransferPenaltyMax: 300}
}

func TestCompileRideEdges(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	feed := &gtfsstatic.Feed{
		Stops: []models.Stop{
			{StopID: "101N"}, {StopID: "102N"},
		},
		Trips: []models.Trip{
			{TripID: "t1", RouteID: "A"},
		},
		StopTimes: []models.StopTime{
			{TripID: "t1", StopID: "101N", StopSequence: 1, ArrivalTime: "08:00:00", DepartureTime: "08:00:00"},
			{TripID: "t1", StopID: "102N", StopSequence: 2, ArrivalTime: "08:03:00", DepartureTime: "08:03:00"},
		},
	}
	require.NoError(t, st.ReplaceStaticData(ctx, feed))

	builder := NewBuilder(st, defaultConfig())
	count, err := builder.Compile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	edges, err := st.GraphEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "101N", edges[0].FromStopID)
	assert.Equal(t, "102N", edges[0].ToStopID)
	assert.Equal(t, "A", edges[0].RouteID)
	assert.Equal(t, 180, edges[0].TravelTimeSeconds)
	assert.False(t, edges[0].IsTransfer)
}

func TestCompileCollapsesDuplicateEdgesByMean(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	feed := &gtfsstatic.Feed{
		Trips: []models.Trip{
			{TripID: "t1", RouteID: "A"},
			{TripID: "t2", RouteID: "A"},
		},
		StopTimes: []models.StopTime{
			{TripID: "t1", StopID: "101N", StopSequence: 1, DepartureTime: "08:00:00"},
			{TripID: "t1", StopID: "102N", StopSequence: 2, ArrivalTime: "08:02:00"},
			{TripID: "t2", StopID: "101N", StopSequence: 1, DepartureTime: "09:00:00"},
			{TripID: "t2", StopID: "102N", StopSequence: 2, ArrivalTime: "09:04:00"},
		},
	}
	require.NoError(t, st.ReplaceStaticData(ctx, feed))

	builder := NewBuilder(st, defaultConfig())
	_, err := builder.Compile(ctx)
	require.NoError(t, err)

	edges, err := st.GraphEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	// (120 + 240) / 2 = 180
	assert.Equal(t, 180, edges[0].TravelTimeSeconds)
}

func TestCompileDeclaredTransferExpandsDirections(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	feed := &gtfsstatic.Feed{
		Transfers: []models.Transfer{
			{FromStopID: "A", ToStopID: "B", TransferType: models.TransferRecommended},
		},
	}
	require.NoError(t, st.ReplaceStaticData(ctx, feed))

	builder := NewBuilder(st, defaultConfig())
	count, err := builder.Compile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, count) // 4x4 directional pairs

	edges, err := st.GraphEdges(ctx)
	require.NoError(t, err)
	for _, e := range edges {
		assert.Equal(t, models.RouteTransfer, e.RouteID)
		assert.True(t, e.IsTransfer)
		assert.Equal(t, 180, e.TransferPenaltySeconds)
		assert.Equal(t, 0, e.TravelTimeSeconds)
	}
}

func TestCompilePlatformTransfersOnlyAmongRideSources(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	feed := &gtfsstatic.Feed{
		Trips: []models.Trip{{TripID: "t1", RouteID: "A"}, {TripID: "t2", RouteID: "A"}},
		StopTimes: []models.StopTime{
			// 101N is a ride-edge source (northbound trip departs it).
			{TripID: "t1", StopID: "101N", StopSequence: 1, DepartureTime: "08:00:00"},
			{TripID: "t1", StopID: "102N", StopSequence: 2, ArrivalTime: "08:02:00"},
			// 101S is also a ride-edge source (southbound trip departs it).
			{TripID: "t2", StopID: "101S", StopSequence: 1, DepartureTime: "08:05:00"},
			{TripID: "t2", StopID: "100S", StopSequence: 2, ArrivalTime: "08:07:00"},
		},
	}
	require.NoError(t, st.ReplaceStaticData(ctx, feed))

	builder := NewBuilder(st, defaultConfig())
	_, err := builder.Compile(ctx)
	require.NoError(t, err)

	edges, err := st.GraphEdges(ctx)
	require.NoError(t, err)

	var platformEdges int
	for _, e := range edges {
		if e.RouteID == models.RoutePlatformTransfer {
			platformEdges++
			assert.Equal(t, 300, e.TransferPenaltySeconds)
			assert.NotEqual(t, e.FromStopID, e.ToStopID)
		}
	}
	// 101N and 101S are both ride-edge sources under base "101", so the
	// ordered pair in both directions is emitted; 102N and 100S have no
	// sibling source.
	assert.Equal(t, 2, platformEdges)
}
