package store

import (
	"context"
	"sort"
	"sync"

	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
)

// MemoryStore is an in-process implementation of Store, grounded on the
// same "snapshot held behind a lock, replaced wholesale" pattern the
// in-memory graph cache uses. It is suitable for tests and small
// deployments that don't need a durable backend.
type MemoryStore struct {
	mu sync.RWMutex

	stops     map[string]models.Stop
	trips     map[string]models.Trip
	transfers []models.Transfer
	stopTimes map[string][]models.StopTime
	edges     []models.GraphEdge
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stops:     make(map[string]models.Stop),
		trips:     make(map[string]models.Trip),
		stopTimes: make(map[string][]models.StopTime),
	}
}

func (s *MemoryStore) StopTimesByTrip(ctx context.Context) (map[string][]models.StopTime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]models.StopTime, len(s.stopTimes))
	for tripID, times := range s.stopTimes {
		cp := make([]models.StopTime, len(times))
		copy(cp, times)
		out[tripID] = cp
	}
	return out, nil
}

func (s *MemoryStore) Stop(ctx context.Context, stopID string) (*models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stop, ok := s.stops[stopID]
	if !ok {
		return nil, nil
	}
	return &stop, nil
}

func (s *MemoryStore) Stops(ctx context.Context) ([]models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Stop, 0, len(s.stops))
	for _, stop := range s.stops {
		out = append(out, stop)
	}
	return out, nil
}

func (s *MemoryStore) Trips(ctx context.Context) ([]models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Trip, 0, len(s.trips))
	for _, trip := range s.trips {
		out = append(out, trip)
	}
	return out, nil
}

func (s *MemoryStore) Transfers(ctx context.Context) ([]models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out, nil
}

func (s *MemoryStore) ReplaceGraphEdges(ctx context.Context, edges []models.GraphEdge) error {
	cp := make([]models.GraphEdge, len(edges))
	copy(cp, edges)

	s.mu.Lock()
	s.edges = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GraphEdges(ctx context.Context) ([]models.GraphEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GraphEdge, len(s.edges))
	copy(out, s.edges)
	return out, nil
}

func (s *MemoryStore) ReplaceStaticData(ctx context.Context, feed *gtfsstatic.Feed) error {
	stops := make(map[string]models.Stop, len(feed.Stops))
	for _, stop := range feed.Stops {
		stops[stop.StopID] = stop
	}

	trips := make(map[string]models.Trip, len(feed.Trips))
	for _, trip := range feed.Trips {
		trips[trip.TripID] = trip
	}

	stopTimes := make(map[string][]models.StopTime)
	for _, st := range feed.StopTimes {
		stopTimes[st.TripID] = append(stopTimes[st.TripID], st)
	}
	for tripID := range stopTimes {
		times := stopTimes[tripID]
		sort.Slice(times, func(i, j int) bool { return times[i].StopSequence < times[j].StopSequence })
		stopTimes[tripID] = times
	}

	transfers := make([]models.Transfer, len(feed.Transfers))
	copy(transfers, feed.Transfers)

	s.mu.Lock()
	s.stops = stops
	s.trips = trips
	s.stopTimes = stopTimes
	s.transfers = transfers
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() {}
