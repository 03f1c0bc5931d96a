package l1

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"go-cf-cache/internal/config"
	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/metrics"
	"go-cf-cache/internal/models"
	"go-cf-cache/internal/scheduler"
)

const (
	// lifeWindow caps how long BigCache keeps any entry; per-entry expiry is checked on read
	lifeWindow      = 24 * time.Hour
	metricsInterval = 30 * time.Second
)

// Ensure BigCache implements interfaces.Cache
var _ interfaces.Cache = (*BigCache)(nil)

// BigCache implements L1 cache using BigCache
type BigCache struct {
	cache            *bigcache.BigCache
	logger           *zap.Logger
	sizeMB           int
	metricsScheduler *scheduler.Scheduler
}

// NewBigCache creates a new BigCache instance
func NewBigCache(cfg *config.L1Config, logger *zap.Logger) (*BigCache, error) {
	bcConfig := bigcache.DefaultConfig(lifeWindow)
	bcConfig.HardMaxCacheSize = cfg.Size // Size in MB
	bcConfig.Verbose = false
	if cfg.MaxEntrySize > 0 {
		bcConfig.MaxEntrySize = cfg.MaxEntrySize
	}

	cache, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	bc := &BigCache{
		cache:  cache,
		logger: logger,
		sizeMB: cfg.Size,
	}

	bc.startMetricsCollection()

	return bc, nil
}

// Get retrieves a live entry from the cache
func (bc *BigCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	data, err := bc.cache.Get(key)
	if err != nil {
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		bc.logger.Warn("Failed to unmarshal L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "decode")
		_ = bc.cache.Delete(key) // Remove corrupted entry
		return nil, false
	}

	if entry.IsExpired() {
		_ = bc.cache.Delete(key)
		return nil, false
	}

	return &entry, true
}

// Set stores value in cache with TTL
func (bc *BigCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	entry := models.NewCacheEntry(val, ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		bc.logger.Error("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "encode")
		return
	}

	if err := bc.cache.Set(key, data); err != nil {
		bc.logger.Error("Failed to set cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "store")
		return
	}
}

// Delete removes entry from cache
func (bc *BigCache) Delete(ctx context.Context, key string) {
	_ = bc.cache.Delete(key)
}

// Close closes the cache
func (bc *BigCache) Close() error {
	bc.stopMetricsCollection()

	return bc.cache.Close()
}

// GetStats returns cache statistics for metrics
func (bc *BigCache) GetStats() (capacity, used int64) {
	capacity = int64(bc.sizeMB) * 1024 * 1024
	used = int64(bc.cache.Capacity()) // bytes allocated by the shard queues
	return capacity, used
}

// startMetricsCollection starts periodic metrics collection
func (bc *BigCache) startMetricsCollection() {
	bc.metricsScheduler = scheduler.New(metricsInterval, bc.updateMetrics)
	bc.metricsScheduler.Start()

	// Initial collection
	bc.updateMetrics(context.Background())

	bc.logger.Debug("Started L1 cache metrics collection")
}

// stopMetricsCollection stops periodic metrics collection
func (bc *BigCache) stopMetricsCollection() {
	if bc.metricsScheduler != nil {
		bc.metricsScheduler.Stop()
		bc.logger.Debug("Stopped L1 cache metrics collection")
	}
}

// updateMetrics updates cache metrics
func (bc *BigCache) updateMetrics(ctx context.Context) {
	capacity, used := bc.GetStats()
	metrics.UpdateL1CacheCapacity(capacity, used)
	metrics.UpdateCacheKeys("l1", int64(bc.cache.Len()))
}
