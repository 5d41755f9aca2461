package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/pkg/utils/json"
)

// SearchCacheConfig configures the search result cache.
type SearchCacheConfig struct {
	// Enabled toggles the cache.
	Enabled bool
	// TTL is the cache entry expiry.
	TTL time.Duration
	// KeyPrefix is the cache key prefix.
	KeyPrefix string
}

// SearchCache caches ranked search results in Redis, keyed by the hash of
// workspace and query.
type SearchCache struct {
	redis  *goredis.Client
	config *SearchCacheConfig
}

// NewSearchCache creates a search cache instance.
func NewSearchCache(redis *goredis.Client, config *SearchCacheConfig) *SearchCache {
	if config == nil {
		config = &SearchCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "search:",
		}
	}
	return &SearchCache{
		redis:  redis,
		config: config,
	}
}

// Enabled reports whether the cache is active.
func (c *SearchCache) Enabled() bool {
	return c.config.Enabled && c.redis != nil
}

// cacheKey hashes (workspace, query) into a cache key. The NUL separator
// keeps distinct pairs from colliding.
func (c *SearchCache) cacheKey(workspaceID, query string) string {
	hash := sha256.Sum256([]byte(workspaceID + "\x00" + query))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get returns cached results for a query, or nil on a miss.
func (c *SearchCache) Get(ctx context.Context, workspaceID, query string) ([]*model.SearchResult, error) {
	if !c.config.Enabled || c.redis == nil {
		return nil, nil
	}

	key := c.cacheKey(workspaceID, query)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			logger.Debugw("search cache miss", "workspace_id", workspaceID, "key", key)
			return nil, nil
		}
		logger.Warnw("failed to get from search cache", "error", err.Error(), "key", key)
		return nil, err
	}

	var results []*model.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		logger.Warnw("failed to unmarshal cached results", "error", err.Error(), "key", key)
		// Drop the corrupted entry.
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	logger.Debugw("search cache hit", "workspace_id", workspaceID, "key", key, "results", len(results))
	return results, nil
}

// Set stores results for a query.
func (c *SearchCache) Set(ctx context.Context, workspaceID, query string, results []*model.SearchResult) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	key := c.cacheKey(workspaceID, query)
	data, err := json.Marshal(results)
	if err != nil {
		logger.Warnw("failed to marshal results for caching", "error", err.Error())
		return err
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set search cache", "error", err.Error(), "key", key)
		return err
	}
	return nil
}

// Clear removes all cached search results.
func (c *SearchCache) Clear(ctx context.Context) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		logger.Warnw("error during cache scan", "error", err.Error())
		return err
	}

	logger.Infow("cleared search cache", "deleted_count", deleted)
	return nil
}

// Stats returns cache statistics.
func (c *SearchCache) Stats(ctx context.Context) (map[string]any, error) {
	if !c.config.Enabled || c.redis == nil {
		return map[string]any{
			"enabled": false,
		}, nil
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]any{
		"enabled":    true,
		"key_count":  keyCount,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}, nil
}
