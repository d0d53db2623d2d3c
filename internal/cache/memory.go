package cache

import (
	"context"
	"sync"
	"time"

	"github.com/transitfusion/fusion_core/internal/models"
)

// MemoryCache is an in-process Cache implementation for tests and
// deployments without a Redis dependency. Entries expire lazily on read,
// mirroring the TTL-on-write/check-on-read shape used elsewhere in this
// codebase's downloader-style caches.
type MemoryCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry

	feedUpdateTs int64
	hasFeedUpdate bool
}

type memoryEntry struct {
	entry     models.ArrivalsEntry
	expiresAt time.Time
}

// NewMemoryCache returns an empty MemoryCache with the given TTL. A ttl
// <= 0 means entries never expire.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(ctx context.Context, baseStopID, direction string) (*models.ArrivalsEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := arrivalsKey(baseStopID, direction)
	rec, ok := c.data[key]
	if !ok {
		return nil, nil
	}
	if c.ttl > 0 && c.now().After(rec.expiresAt) {
		delete(c.data, key)
		return nil, nil
	}

	entryCopy := rec.entry
	return &entryCopy, nil
}

func (c *MemoryCache) Put(ctx context.Context, baseStopID, direction string, entry models.ArrivalsEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[arrivalsKey(baseStopID, direction)] = memoryEntry{
		entry:     entry,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) SetFeedUpdate(ctx context.Context, asOfTs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.feedUpdateTs = asOfTs
	c.hasFeedUpdate = true
	return nil
}

func (c *MemoryCache) GetFeedAge(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasFeedUpdate {
		return 0, errNoFeedUpdate
	}

	age := c.now().Unix() - c.feedUpdateTs
	if age < 0 {
		age = 0
	}
	return age, nil
}

func (c *MemoryCache) ListStopsWithEntries(ctx context.Context) ([]StopDirection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var out []StopDirection
	for key, rec := range c.data {
		if c.ttl > 0 && now.After(rec.expiresAt) {
			continue
		}
		baseStopID, direction := splitArrivalsKey(key)
		out = append(out, StopDirection{BaseStopID: baseStopID, Direction: direction})
	}
	return out, nil
}

func (c *MemoryCache) Health(ctx context.Context) (HealthStatus, error) {
	entries, _ := c.ListStopsWithEntries(ctx)
	age, err := c.GetFeedAge(ctx)
	if err != nil {
		age = -1
	}
	return HealthStatus{OK: true, EntryCount: len(entries), FeedAgeSeconds: age}, nil
}

func (c *MemoryCache) Close() error { return nil }

func splitArrivalsKey(key string) (baseStopID, direction string) {
	// key is "arrivals:<base_stop_id>:<direction>"
	const prefix = "arrivals:"
	if len(key) <= len(prefix) {
		return "", ""
	}
	rest := key[len(prefix):]
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == ':' {
			return rest[:i], rest[i+1:]
		}
	}
	return rest, ""
}

var errNoFeedUpdate = &noFeedUpdateError{}

type noFeedUpdateError struct{}

func (*noFeedUpdateError) Error() string { return "no feed update recorded yet" }
