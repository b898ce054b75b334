// Package redis caches the latest published result and the contribution
// history map for warm starts across processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/persistence"
)

const (
	resultKeyFmt  = "cascade:result:%s"
	historyKeyFmt = "cascade:history:%s"

	defaultDialTimeout = 10 * time.Second
)

// ErrNotCached is returned when no snapshot exists for the user.
var ErrNotCached = errors.New("snapshot not cached")

// historyBlob is the stored history payload.
type historyBlob struct {
	Version string             `json:"version"`
	Entries map[string]float64 `json:"entries"`
}

// SnapshotCache implements persistence.SnapshotCache on Redis.
type SnapshotCache struct {
	client *redis.Client
}

var _ persistence.SnapshotCache = (*SnapshotCache)(nil)

// NewSnapshotCache wraps an existing client.
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

// Connect dials Redis from a URL and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = defaultDialTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	log.Debug().Str("component", "redis").Msg("redis connected")
	return client, nil
}

// StoreResult caches the latest result for the user.
func (c *SnapshotCache) StoreResult(ctx context.Context, userID string, res *domain.Result, ttl time.Duration) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	key := fmt.Sprintf(resultKeyFmt, userID)
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// LoadResult returns the cached result or ErrNotCached.
func (c *SnapshotCache) LoadResult(ctx context.Context, userID string) (*domain.Result, error) {
	key := fmt.Sprintf(resultKeyFmt, userID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}
	var res domain.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return &res, nil
}

// StoreHistory caches the contribution history map with its schema version.
func (c *SnapshotCache) StoreHistory(ctx context.Context, userID, version string, entries map[string]float64, ttl time.Duration) error {
	payload, err := json.Marshal(historyBlob{Version: version, Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	key := fmt.Sprintf(historyKeyFmt, userID)
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache history: %w", err)
	}
	return nil
}

// LoadHistory returns the cached history map, or ErrNotCached when absent.
func (c *SnapshotCache) LoadHistory(ctx context.Context, userID string) (string, map[string]float64, error) {
	key := fmt.Sprintf(historyKeyFmt, userID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return "", nil, ErrNotCached
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read cached history: %w", err)
	}
	var blob historyBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal cached history: %w", err)
	}
	return blob.Version, blob.Entries, nil
}
