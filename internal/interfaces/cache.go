package interfaces

import (
	"context"
	"time"

	"go-cf-cache/internal/models"
)

//go:generate mockgen -package=mock -source=cache.go -destination=mock/cache.go

// Cache interface defines the contract for cache implementations
type Cache interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, bool) // returns entry and found flag
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// LevelAwareCache reports which level served a hit
type LevelAwareCache interface {
	Cache
	GetWithLevel(ctx context.Context, key string) models.LevelResult
}
