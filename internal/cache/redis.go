// Package cache keeps recently read assets in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alfredjeanlab/userassets/internal/model"
)

const (
	keyPrefix = "assets:"

	// DefaultTTL is the TTL for cached assets.
	DefaultTTL = 10 * time.Minute

	scanCount = 100
)

// ErrMiss is returned by GetAsset when the asset is not cached.
var ErrMiss = errors.New("cache miss")

// RedisCache stores JSON-encoded assets under "assets:{owner}:{name}".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis server at redisURL and verifies the connection.
// A ttl of zero selects DefaultTTL.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 1
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return NewFromClient(client, ttl), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func assetKey(ownerID int64, name string) string {
	return ownerPrefix(ownerID) + name
}

func ownerPrefix(ownerID int64) string {
	return keyPrefix + strconv.FormatInt(ownerID, 10) + ":"
}

// GetAsset returns the cached asset or ErrMiss.
func (c *RedisCache) GetAsset(ctx context.Context, ownerID int64, name string) (*model.Asset, error) {
	data, err := c.client.Get(ctx, assetKey(ownerID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var a model.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode cached asset: %w", err)
	}
	return &a, nil
}

// SetAsset caches a for the configured TTL.
func (c *RedisCache) SetAsset(ctx context.Context, a *model.Asset) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode asset: %w", err)
	}
	if err := c.client.Set(ctx, assetKey(a.OwnerID, a.Name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache asset: %w", err)
	}
	return nil
}

// DeleteAsset drops one cached asset.
func (c *RedisCache) DeleteAsset(ctx context.Context, ownerID int64, name string) error {
	if err := c.client.Del(ctx, assetKey(ownerID, name)).Err(); err != nil {
		return fmt.Errorf("failed to delete asset from cache: %w", err)
	}
	return nil
}

// DeleteOwner drops every cached asset of ownerID.
func (c *RedisCache) DeleteOwner(ctx context.Context, ownerID int64) error {
	iter := c.client.Scan(ctx, 0, ownerPrefix(ownerID)+"*", scanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan owner keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete owner from cache: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
