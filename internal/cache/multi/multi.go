package multi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/metrics"
	"go-cf-cache/internal/models"
)

// Ensure MultiCache implements interfaces.LevelAwareCache
var _ interfaces.LevelAwareCache = (*MultiCache)(nil)

// levels names cache positions; caches past the second report as L2
var levels = []models.CacheLevel{models.CacheLevelL1, models.CacheLevelL2}

// MultiCache implements a composite cache that tries multiple cache implementations in order.
// Hits from a later level are optionally copied into the earlier ones.
type MultiCache struct {
	caches            []interfaces.Cache
	enablePropagation bool
	logger            *zap.Logger
}

// NewMultiCache creates a new MultiCache instance with provided cache implementations
func NewMultiCache(caches []interfaces.Cache, enablePropagation bool, logger *zap.Logger) *MultiCache {
	return &MultiCache{
		caches:            caches,
		enablePropagation: enablePropagation,
		logger:            logger,
	}
}

// Get retrieves value from the first cache that has the key
func (mc *MultiCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	result := mc.GetWithLevel(ctx, key)
	return result.Entry, result.Found
}

// GetWithLevel retrieves value and reports which level served it
func (mc *MultiCache) GetWithLevel(ctx context.Context, key string) models.LevelResult {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for get operation", zap.String("key", key))
		return models.LevelResult{Level: models.CacheLevelMiss}
	}

	for i, cache := range mc.caches {
		level := levelOf(i)
		done := metrics.TimeCacheGetOperation(level.Label())
		entry, found := cache.Get(ctx, key)
		done()

		if !found {
			continue
		}

		if i > 0 && mc.enablePropagation {
			mc.propagate(ctx, key, entry, i)
		}
		return models.LevelResult{Entry: entry, Found: true, Level: level}
	}

	return models.LevelResult{Level: models.CacheLevelMiss}
}

// propagate copies a hit into the levels in front of the one that served it
func (mc *MultiCache) propagate(ctx context.Context, key string, entry *models.CacheEntry, hitIndex int) {
	ttl := entry.RemainingTTL()
	if ttl <= 0 {
		return
	}

	for i := 0; i < hitIndex; i++ {
		mc.caches[i].Set(ctx, key, entry.Data, ttl)
	}

	mc.logger.Debug("Propagated cache entry",
		zap.String("key", key),
		zap.String("from", string(levelOf(hitIndex))),
		zap.Duration("ttl", ttl))
}

// Set stores value in all available caches
func (mc *MultiCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for set operation", zap.String("key", key))
		return
	}

	for _, cache := range mc.caches {
		cache.Set(ctx, key, val, ttl)
	}
}

// Delete removes entry from all available caches
func (mc *MultiCache) Delete(ctx context.Context, key string) {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for delete operation", zap.String("key", key))
		return
	}

	for _, cache := range mc.caches {
		cache.Delete(ctx, key)
	}
}

// GetCacheCount returns the number of caches in the multi-cache
func (mc *MultiCache) GetCacheCount() int {
	return len(mc.caches)
}

func levelOf(i int) models.CacheLevel {
	if i < len(levels) {
		return levels[i]
	}
	return models.CacheLevelL2
}
