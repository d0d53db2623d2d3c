package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	clearFusionEnv(t)

	cfg := Load()
	assert.Empty(t, cfg.FeedURLs)
	assert.Equal(t, 45*time.Second, cfg.FeedPollInterval)
	assert.Equal(t, 10*time.Second, cfg.FeedFetchTimeout)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.RouterMaxTransfers)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearFusionEnv(t)

	t.Setenv("FEED_URLS", "https://a.example/feed, https://b.example/feed")
	t.Setenv("FEED_HEADERS", "x-api-key:abc123, x-region: us")
	t.Setenv("ROUTER_MAX_TRANSFERS", "5")
	t.Setenv("CACHE_TTL_SECONDS", "30")

	cfg := Load()
	assert.Equal(t, []string{"https://a.example/feed", "https://b.example/feed"}, cfg.FeedURLs)
	assert.Equal(t, map[string]string{"x-api-key": "abc123", "x-region": "us"}, cfg.FeedHeaders)
	assert.Equal(t, 5, cfg.RouterMaxTransfers)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	clearFusionEnv(t)
	t.Setenv("ROUTER_MAX_TRANSFERS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 3, cfg.RouterMaxTransfers)
}

func clearFusionEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"FEED_URLS", "FEED_HEADERS", "FEED_POLL_INTERVAL_SECONDS", "FEED_FETCH_TIMEOUT_SECONDS",
		"CACHE_TTL_SECONDS", "TRANSFER_PENALTY_MIN_SECONDS", "TRANSFER_PENALTY_MAX_SECONDS",
		"ROUTER_MAX_TRANSFERS", "ROUTER_DEFAULT_EDGE_SECONDS", "REDIS_ADDR", "REDIS_PASSWORD",
		"REDIS_DB", "DATABASE_URL", "POLLER_BACKOFF_SECONDS",
	}
	for _, k := range keys {
		v, ok := os.LookupEnv(k)
		os.Unsetenv(k)
		if ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}
