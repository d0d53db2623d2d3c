// Package store is the Static Store collaborator: durable persistence for
// the parsed GTFS static feed and the compiled graph-edge table.
package store

import (
	"context"

	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
)

// Store is the persistence contract the graph compiler and the static
// import tooling depend on.
type Store interface {
	// StopTimesByTrip returns every stop_time row grouped by trip id, each
	// slice already sorted by stop_sequence.
	StopTimesByTrip(ctx context.Context) (map[string][]models.StopTime, error)

	// Stop looks up a single stop by id.
	Stop(ctx context.Context, stopID string) (*models.Stop, error)

	// Stops returns every stop in the feed.
	Stops(ctx context.Context) ([]models.Stop, error)

	// Trips returns every trip in the feed, used to label ride edges with
	// their route id.
	Trips(ctx context.Context) ([]models.Trip, error)

	// Transfers returns every declared transfer row.
	Transfers(ctx context.Context) ([]models.Transfer, error)

	// ReplaceGraphEdges atomically replaces the entire graph-edge table
	// with the given set. All-or-nothing: either every edge is committed
	// or none are.
	ReplaceGraphEdges(ctx context.Context, edges []models.GraphEdge) error

	// GraphEdges returns every committed graph edge.
	GraphEdges(ctx context.Context) ([]models.GraphEdge, error)

	// ReplaceStaticData atomically replaces the static feed tables
	// (stops, trips, stop_times, transfers; PostgresStore also keeps
	// agencies and routes) with the contents of a freshly parsed feed.
	// Calendars and calendar dates are not stored.
	ReplaceStaticData(ctx context.Context, feed *gtfsstatic.Feed) error

	// Close releases any held resources (connection pools, etc).
	Close()
}
