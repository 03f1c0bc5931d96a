package l1

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-cf-cache/internal/config"
	"go-cf-cache/internal/models"
)

func newTestCache(t *testing.T) *BigCache {
	t.Helper()
	cache, err := NewBigCache(&config.L1Config{Enabled: true, Size: 10}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestNewBigCache(t *testing.T) {
	logger := zap.NewNop()

	cache, err := NewBigCache(&config.L1Config{Enabled: true, Size: 10, MaxEntrySize: 4096}, logger)
	require.NoError(t, err)
	defer cache.Close()

	assert.NotNil(t, cache.cache)
	assert.Equal(t, logger, cache.logger)
	assert.True(t, cache.metricsScheduler.IsRunning())
}

func TestBigCache_Set_And_Get(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	testData := []byte("test-value")
	cache.Set(ctx, "test-key", testData, 60*time.Second)

	result, found := cache.Get(ctx, "test-key")

	assert.True(t, found)
	require.NotNil(t, result)
	assert.False(t, result.IsExpired())
	assert.Equal(t, testData, result.Data)
	assert.InDelta(t, 60, result.ExpiresAt-result.CreatedAt, 1)
}

func TestBigCache_Get_NotFound(t *testing.T) {
	cache := newTestCache(t)

	result, found := cache.Get(context.Background(), "non-existent-key")

	assert.False(t, found)
	assert.Nil(t, result)
}

func TestBigCache_Get_Expired(t *testing.T) {
	cache := newTestCache(t)
	now := time.Now().Unix()

	entry := models.CacheEntry{
		Data:      []byte("test-value"),
		CreatedAt: now - 300,
		ExpiresAt: now - 100, // Already expired
	}
	entryJSON, _ := json.Marshal(entry)
	require.NoError(t, cache.cache.Set("test-key", entryJSON))

	result, found := cache.Get(context.Background(), "test-key")

	assert.False(t, found)
	assert.Nil(t, result)

	// Expired entry is evicted on read
	_, err := cache.cache.Get("test-key")
	assert.Error(t, err)
}

func TestBigCache_Get_Corrupted(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.cache.Set("bad-key", []byte("not json")))

	result, found := cache.Get(context.Background(), "bad-key")

	assert.False(t, found)
	assert.Nil(t, result)

	_, err := cache.cache.Get("bad-key")
	assert.Error(t, err, "corrupted entry should be removed")
}

func TestBigCache_Set_NonPositiveTTL(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "zero-ttl", []byte("value"), 0)
	cache.Set(ctx, "negative-ttl", []byte("value"), -time.Second)

	_, found := cache.Get(ctx, "zero-ttl")
	assert.False(t, found)
	_, found = cache.Get(ctx, "negative-ttl")
	assert.False(t, found)
}

func TestBigCache_Set_Overwrites(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("first"), time.Minute)
	cache.Set(ctx, "key", []byte("second"), time.Minute)

	result, found := cache.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, []byte("second"), result.Data)
}

func TestBigCache_Delete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "test-key", []byte("test-value"), 60*time.Second)

	result, found := cache.Get(ctx, "test-key")
	assert.True(t, found)
	assert.NotNil(t, result)

	cache.Delete(ctx, "test-key")

	result, found = cache.Get(ctx, "test-key")
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestBigCache_Delete_NonExistent(t *testing.T) {
	cache := newTestCache(t)

	// Should not panic
	cache.Delete(context.Background(), "non-existent-key")
}

func TestBigCache_Multiple_Keys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cache.Set(ctx, fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)), time.Minute)
	}

	for i := 0; i < 10; i++ {
		result, found := cache.Get(ctx, fmt.Sprintf("key-%d", i))
		assert.True(t, found)
		require.NotNil(t, result)
		assert.Equal(t, []byte(fmt.Sprintf("value-%d", i)), result.Data)
	}
}

func TestBigCache_Concurrent_Access(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	numGoroutines := 10
	numOperations := 100
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numOperations; j++ {
				key := fmt.Sprintf("concurrent-key-%d-%d", id, j)
				value := []byte(fmt.Sprintf("value-%d-%d", id, j))

				cache.Set(ctx, key, value, time.Minute)

				result, found := cache.Get(ctx, key)
				if found {
					assert.NotNil(t, result)
					assert.Equal(t, value, result.Data)
				}

				cache.Delete(ctx, key)
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}

func TestBigCache_GetStats(t *testing.T) {
	cache := newTestCache(t)

	capacity, used := cache.GetStats()

	assert.Equal(t, int64(10*1024*1024), capacity)
	assert.GreaterOrEqual(t, used, int64(0))
}

func TestBigCache_Close_StopsMetrics(t *testing.T) {
	cache, err := NewBigCache(&config.L1Config{Enabled: true, Size: 10}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.False(t, cache.metricsScheduler.IsRunning())
}
