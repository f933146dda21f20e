package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"itad_portal_backend/internal/taxonomy/repository"

	"github.com/redis/go-redis/v9"
)

// snapshotKey is versioned so a shape change never reads an old payload.
const snapshotKey = "taxonomy:snapshot:v1"

// RedisCache stores the taxonomy snapshot in Redis so every API instance
// shares one copy.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a snapshot cache. A non-positive ttl keeps entries
// until Invalidate is called.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context) (*repository.Snapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read taxonomy cache: %w", err)
	}

	var s repository.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy cache: %w", err)
	}
	return &s, nil
}

// Set stores a snapshot.
func (c *RedisCache) Set(ctx context.Context, s *repository.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode taxonomy cache: %w", err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, snapshotKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write taxonomy cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to clear taxonomy cache: %w", err)
	}
	return nil
}
