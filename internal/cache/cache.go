// Package cache is the Arrivals Cache collaborator: a pure value store for
// realtime predictions keyed by (base_stop_id, direction), plus the feed
// freshness marker.
package cache

import (
	"context"

	"github.com/transitfusion/fusion_core/internal/models"
)

// Cache is the contract the Feed Poller writes through and the Router
// reads from. It holds no prediction logic of its own.
type Cache interface {
	// Get returns the cached arrivals for a (base_stop_id, direction)
	// bucket. A nil entry with a nil error means no entry is cached.
	Get(ctx context.Context, baseStopID, direction string) (*models.ArrivalsEntry, error)

	// Put atomically replaces the entry for (base_stop_id, direction)
	// with the given predictions, stamped with asOfTs, and applies the
	// configured TTL.
	Put(ctx context.Context, baseStopID, direction string, entry models.ArrivalsEntry) error

	// SetFeedUpdate records the timestamp of the most recent completed
	// poll cycle.
	SetFeedUpdate(ctx context.Context, asOfTs int64) error

	// GetFeedAge returns the number of seconds since the last recorded
	// feed update.
	GetFeedAge(ctx context.Context) (int64, error)

	// ListStopsWithEntries returns every (base_stop_id, direction) pair
	// that currently has a cached entry.
	ListStopsWithEntries(ctx context.Context) ([]StopDirection, error)

	// Health reports the cache's operational status.
	Health(ctx context.Context) (HealthStatus, error)

	Close() error
}

// StopDirection identifies one arrivals bucket.
type StopDirection struct {
	BaseStopID string
	Direction  string
}

// HealthStatus is the shape the health() contract returns.
type HealthStatus struct {
	OK               bool  `json:"ok"`
	EntryCount       int   `json:"entry_count"`
	FeedAgeSeconds   int64 `json:"feed_age_seconds"`
}
