// Package redis implements the search result cache on Redis.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache implements the domain.Cache interface using Redis. Keys are
// namespaced with a prefix so several deployments can share one instance.
type Cache struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

// NewCache creates a new Redis cache instance.
func NewCache(client *redis.Client, logger *zap.Logger, keyPrefix string) *Cache {
	return &Cache{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value by key. A missing key returns nil bytes and no
// error; expiry is handled by Redis, so a stale entry simply stops existing.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey := c.buildKey(key)

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return nil, err
	}

	c.logger.Debug("cache hit",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)

	return data, nil
}

// Set stores a value with the given TTL. Writing over an existing key
// replaces it and restarts the TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	fullKey := c.buildKey(key)

	err := c.client.Set(ctx, fullKey, value, ttl).Err()
	if err != nil {
		c.logger.Error("cache set failed",
			zap.String("key", key),
			zap.Int("bytes", len(value)),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)

		return err
	}

	c.logger.Debug("cache set",
		zap.String("key", key),
		zap.Int("bytes", len(value)),
		zap.Duration("ttl", ttl),
	)

	return nil
}

// Delete removes a value by key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	fullKey := c.buildKey(key)

	err := c.client.Del(ctx, fullKey).Err()
	if err != nil {
		c.logger.Error("cache delete failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// Clear removes every cached value under the keyPrefix. Uses SCAN so a large
// cache does not block the server.
func (c *Cache) Clear(ctx context.Context) error {
	pattern := c.keyPrefix + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		c.logger.Error("cache clear scan failed",
			zap.String("pattern", pattern),
			zap.Error(err),
		)

		return err
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Error("cache clear delete failed",
				zap.Int("key_count", len(keys)),
				zap.Error(err),
			)

			return err
		}
	}

	c.logger.Info("cache cleared",
		zap.Int("key_count", len(keys)),
	)

	return nil
}

// buildKey namespaces a key with the configured prefix.
func (c *Cache) buildKey(key string) string {
	return c.keyPrefix + ":" + key
}
