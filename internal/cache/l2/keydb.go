package l2

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-cf-cache/internal/config"
	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/metrics"
	"go-cf-cache/internal/models"
)

// Ensure KeyDBCache implements interfaces.Cache
var _ interfaces.Cache = (*KeyDBCache)(nil)

// KeyDBCache implements L2 cache using Redis/KeyDB
type KeyDBCache struct {
	client interfaces.KeyDbClient
	config *config.Config
	logger *zap.Logger
}

// NewKeyDBCache creates a new KeyDBCache instance with provided client
func NewKeyDBCache(cfg *config.Config, client interfaces.KeyDbClient, logger *zap.Logger) *KeyDBCache {
	return &KeyDBCache{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Get retrieves a live entry from KeyDB
func (kc *KeyDBCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetReadTimeout())
	defer cancel()

	data, err := kc.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			kc.logger.Error("L2 cache get error", zap.String("key", key), zap.Error(err))
			metrics.RecordCacheError("l2", "get")
		}
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		kc.logger.Error("Failed to unmarshal L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "decode")
		kc.client.Del(ctx, key)
		return nil, false
	}

	// KeyDB expires keys itself; this covers clock skew between writers
	if entry.IsExpired() {
		kc.client.Del(ctx, key)
		return nil, false
	}

	return &entry, true
}

// Set stores value in KeyDB with TTL, bounded by the configured max TTL
func (kc *KeyDBCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if maxTTL := kc.config.GetMaxTTL(); maxTTL > 0 && ttl > maxTTL {
		ttl = maxTTL
	}

	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	data, err := json.Marshal(models.NewCacheEntry(val, ttl))
	if err != nil {
		kc.logger.Error("Failed to marshal L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "encode")
		return
	}

	if err := kc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		kc.logger.Error("Failed to set L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "store")
		return
	}
}

// Delete removes entry from KeyDB cache
func (kc *KeyDBCache) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Del(ctx, key).Err(); err != nil {
		kc.logger.Error("Failed to delete L2 cache entry", zap.String("key", key), zap.Error(err))
		return
	}
}

// Ping checks that KeyDB is reachable
func (kc *KeyDBCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetReadTimeout())
	defer cancel()

	return kc.client.Ping(ctx).Err()
}

// Close closes the KeyDB connection
func (kc *KeyDBCache) Close() error {
	return kc.client.Close()
}
