package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transitfusion/fusion_core/internal/cache"
	"github.com/transitfusion/fusion_core/internal/graph"
	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
	"github.com/transitfusion/fusion_core/internal/store"
)

func newTestRouter(t *testing.T, edges []models.GraphEdge, arrivalsCache cache.Cache, maxTransfers int) *Router {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.ReplaceGraphEdges(context.Background(), edges))
	holder := graph.NewHolder(st)
	return NewRouter(holder, arrivalsCache, Config{MaxTransfers: maxTransfers})
}

// Scenario 1: two-stop single-line trip, no transfers, empty live cache.
func TestScenarioTwoStopSingleLine(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R", TravelTimeSeconds: 300},
	}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 3)

	it, err := router.FindItinerary(context.Background(), "A", "B")
	require.NoError(t, err)

	require.Len(t, it.Legs, 1)
	leg := it.Legs[0]
	assert.Equal(t, "A", leg.FromStopID)
	assert.Equal(t, "B", leg.ToStopID)
	assert.Equal(t, "R", leg.RouteID)
	assert.Equal(t, 300, leg.BoardInSeconds)
	assert.Equal(t, 300, leg.TravelTimeSeconds)
	assert.False(t, leg.IsTransferLeg)
	assert.Equal(t, 0, it.Transfers)
	assert.Equal(t, 600, it.TotalEtaSeconds)
}

// Scenario 2: same trip, with a live overlay on the first leg.
func TestScenarioLiveOverlay(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R", TravelTimeSeconds: 300},
	}
	arrivalsCache := cache.NewMemoryCache(0)
	require.NoError(t, arrivalsCache.Put(context.Background(), "A", "N", models.ArrivalsEntry{
		Arrivals: []models.Prediction{{RouteID: "R", EtaSeconds: 90}},
	}))

	router := newTestRouter(t, edges, arrivalsCache, 3)

	it, err := router.FindItinerary(context.Background(), "A", "B")
	require.NoError(t, err)

	require.Len(t, it.Legs, 1)
	assert.Equal(t, 90, it.Legs[0].BoardInSeconds)
	assert.Equal(t, 300, it.Legs[0].TravelTimeSeconds)
	assert.Equal(t, 0, it.Transfers)
	assert.Equal(t, 390, it.TotalEtaSeconds)
}

// Scenario 3: two-line trip with a transfer.
func TestScenarioTwoLineTransfer(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R1", TravelTimeSeconds: 300},
		{FromStopID: "B", ToStopID: "B", RouteID: models.RouteTransfer, TravelTimeSeconds: 0, IsTransfer: true, TransferPenaltySeconds: 180},
		{FromStopID: "B", ToStopID: "C", RouteID: "R2", TravelTimeSeconds: 240},
	}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 2)

	it, err := router.FindItinerary(context.Background(), "A", "C")
	require.NoError(t, err)

	require.Len(t, it.Legs, 2)
	assert.False(t, it.Legs[0].IsTransferLeg)
	assert.Equal(t, "R1", it.Legs[0].RouteID)
	assert.True(t, it.Legs[1].IsTransferLeg)
	assert.Equal(t, "R2", it.Legs[1].RouteID)
	assert.Equal(t, 1, it.Transfers)
}

// Scenario 4: same graph as scenario 3, but max_transfers=0 forbids the
// only path.
func TestScenarioTransferBudgetExceeded(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R1", TravelTimeSeconds: 300},
		{FromStopID: "B", ToStopID: "B", RouteID: models.RouteTransfer, TravelTimeSeconds: 0, IsTransfer: true, TransferPenaltySeconds: 180},
		{FromStopID: "B", ToStopID: "C", RouteID: "R2", TravelTimeSeconds: 240},
	}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 0)

	_, err := router.FindItinerary(context.Background(), "A", "C")
	assert.ErrorIs(t, err, ErrNoRoute)
}

// Scenario 5: directional expansion on the input, where the southbound
// variant is cheaper than the northbound one.
func TestScenarioDirectionalExpansion(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "AN", ToStopID: "Z", RouteID: "R", TravelTimeSeconds: 500},
		{FromStopID: "AS", ToStopID: "Z", RouteID: "R", TravelTimeSeconds: 200},
	}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 3)

	it, err := router.FindItinerary(context.Background(), "A", "Z")
	require.NoError(t, err)

	require.Len(t, it.Legs, 1)
	assert.Equal(t, "AS", it.Legs[0].FromStopID)
	assert.Equal(t, 200, it.Legs[0].TravelTimeSeconds)
}

// Scenario 6: overnight stop_time parsing yields a positive travel time
// even when the trip crosses midnight.
func TestScenarioOvernightTimeParsing(t *testing.T) {
	depSec, err := gtfsstatic.ParseTimeToSeconds("23:59:30")
	require.NoError(t, err)
	arrSec, err := gtfsstatic.ParseTimeToSeconds("25:00:30")
	require.NoError(t, err)
	assert.Equal(t, 3660, arrSec-depSec)
}

func TestSameEndpointShortCircuits(t *testing.T) {
	router := newTestRouter(t, nil, cache.NewMemoryCache(0), 3)

	it, err := router.FindItinerary(context.Background(), "A", "A")
	require.NoError(t, err)
	assert.Empty(t, it.Legs)
	assert.Equal(t, 0, it.Transfers)
	assert.Equal(t, 0, it.TotalEtaSeconds)
}

func TestOriginNotFound(t *testing.T) {
	edges := []models.GraphEdge{{FromStopID: "A", ToStopID: "B", RouteID: "R", TravelTimeSeconds: 300}}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 3)

	_, err := router.FindItinerary(context.Background(), "Q", "B")
	assert.ErrorIs(t, err, ErrOriginNotFound)
}

func TestDestinationNotFound(t *testing.T) {
	edges := []models.GraphEdge{{FromStopID: "A", ToStopID: "B", RouteID: "R", TravelTimeSeconds: 300}}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 3)

	_, err := router.FindItinerary(context.Background(), "A", "Q")
	assert.ErrorIs(t, err, ErrDestinationNotFound)
}

// P1: transfers == legs-1 if legs>0 else 0.
func TestPropertyTransfersEqualsLegsMinusOne(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R1", TravelTimeSeconds: 300},
		{FromStopID: "B", ToStopID: "B", RouteID: models.RouteTransfer, TravelTimeSeconds: 0, IsTransfer: true, TransferPenaltySeconds: 180},
		{FromStopID: "B", ToStopID: "C", RouteID: "R2", TravelTimeSeconds: 240},
	}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 2)

	it, err := router.FindItinerary(context.Background(), "A", "C")
	require.NoError(t, err)
	assert.Equal(t, len(it.Legs)-1, it.Transfers)
}

// P3: no leg carries a transfer sentinel route id.
func TestPropertyNoTransferRouteInLegs(t *testing.T) {
	edges := []models.GraphEdge{
		{FromStopID: "A", ToStopID: "B", RouteID: "R1", TravelTimeSeconds: 300},
		{FromStopID: "B", ToStopID: "B", RouteID: models.RouteTransfer, TravelTimeSeconds: 0, IsTransfer: true, TransferPenaltySeconds: 180},
		{FromStopID: "B", ToStopID: "C", RouteID: "R2", TravelTimeSeconds: 240},
	}
	router := newTestRouter(t, edges, cache.NewMemoryCache(0), 2)

	it, err := router.FindItinerary(context.Background(), "A", "C")
	require.NoError(t, err)
	for _, leg := range it.Legs {
		assert.NotEqual(t, models.RouteTransfer, leg.RouteID)
		assert.NotEqual(t, models.RoutePlatformTransfer, leg.RouteID)
	}
}
