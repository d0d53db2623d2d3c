package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/transitfusion/fusion_core/internal/models"
)

const feedUpdateKey = "feed:last_update"

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	UseTLS   bool
}

// LoadRedisConfigFromEnv loads Redis configuration from the environment,
// matching the arrivals-cache tunables named in the external interfaces.
func LoadRedisConfigFromEnv() RedisConfig {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttlSeconds, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "90"))

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      time.Duration(ttlSeconds) * time.Second,
		UseTLS:   getEnv("REDIS_TLS", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RedisCache is a go-redis-backed Cache implementation. Keys follow
// "arrivals:<base_stop_id>:<direction>"; values are JSON-encoded
// models.ArrivalsEntry, with a TTL applied on every write.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache dials Redis per cfg.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &RedisCache{
		client: redis.NewClient(opts),
		ttl:    cfg.TTL,
	}
}

func arrivalsKey(baseStopID, direction string) string {
	return fmt.Sprintf("arrivals:%s:%s", baseStopID, direction)
}

func (c *RedisCache) Get(ctx context.Context, baseStopID, direction string) (*models.ArrivalsEntry, error) {
	raw, err := c.client.Get(ctx, arrivalsKey(baseStopID, direction)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting arrivals entry: %w", err)
	}

	var entry models.ArrivalsEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decoding arrivals entry: %w", err)
	}
	return &entry, nil
}

func (c *RedisCache) Put(ctx context.Context, baseStopID, direction string, entry models.ArrivalsEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding arrivals entry: %w", err)
	}

	if err := c.client.Set(ctx, arrivalsKey(baseStopID, direction), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing arrivals entry: %w", err)
	}
	return nil
}

func (c *RedisCache) SetFeedUpdate(ctx context.Context, asOfTs int64) error {
	if err := c.client.Set(ctx, feedUpdateKey, asOfTs, 0).Err(); err != nil {
		return fmt.Errorf("writing feed update marker: %w", err)
	}
	return nil
}

func (c *RedisCache) GetFeedAge(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, feedUpdateKey).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("no feed update recorded yet")
	}
	if err != nil {
		return 0, fmt.Errorf("reading feed update marker: %w", err)
	}

	lastUpdate, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing feed update marker: %w", err)
	}

	age := time.Now().Unix() - lastUpdate
	if age < 0 {
		age = 0
	}
	return age, nil
}

func (c *RedisCache) ListStopsWithEntries(ctx context.Context) ([]StopDirection, error) {
	var out []StopDirection
	iter := c.client.Scan(ctx, 0, "arrivals:*", 0).Iterator()
	for iter.Next(ctx) {
		parts := strings.SplitN(iter.Val(), ":", 3)
		if len(parts) != 3 {
			continue
		}
		out = append(out, StopDirection{BaseStopID: parts[1], Direction: parts[2]})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning arrivals keys: %w", err)
	}
	return out, nil
}

func (c *RedisCache) Health(ctx context.Context) (HealthStatus, error) {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return HealthStatus{OK: false}, fmt.Errorf("pinging redis: %w", err)
	}

	entries, err := c.ListStopsWithEntries(ctx)
	if err != nil {
		return HealthStatus{OK: false}, err
	}

	age, err := c.GetFeedAge(ctx)
	if err != nil {
		// No feed update recorded yet is not an unhealthy cache.
		age = -1
	}

	return HealthStatus{OK: true, EntryCount: len(entries), FeedAgeSeconds: age}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
