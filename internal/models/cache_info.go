package models

import (
	"time"
)

// CacheInfo describes how a request URL is cached
type CacheInfo struct {
	Endpoint string        `json:"endpoint"`
	Key      string        `json:"key"`
	TTL      time.Duration `json:"ttl"`
}

// CacheStatus is reported to callers of the lookup endpoint
type CacheStatus string

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
)

// CacheLevel identifies which store served a hit
type CacheLevel string

const (
	CacheLevelL1   CacheLevel = "L1"
	CacheLevelL2   CacheLevel = "L2"
	CacheLevelMiss CacheLevel = "MISS"
)

// Label returns the lowercase form used in metric labels
func (l CacheLevel) Label() string {
	switch l {
	case CacheLevelL1:
		return "l1"
	case CacheLevelL2:
		return "l2"
	default:
		return "miss"
	}
}

// CacheEntry is the envelope persisted by every cache level
type CacheEntry struct {
	Data      []byte `json:"data"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewCacheEntry wraps data with timestamps derived from ttl
func NewCacheEntry(data []byte, ttl time.Duration) CacheEntry {
	now := time.Now().Unix()
	return CacheEntry{
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now + int64(ttl.Seconds()),
	}
}

// IsExpired reports whether the entry outlived its TTL
func (e *CacheEntry) IsExpired() bool {
	return time.Now().Unix() >= e.ExpiresAt
}

// RemainingTTL returns the time left before expiry, zero if already expired
func (e *CacheEntry) RemainingTTL() time.Duration {
	left := e.ExpiresAt - time.Now().Unix()
	if left <= 0 {
		return 0
	}
	return time.Duration(left) * time.Second
}

// LevelResult is returned by level-aware caches
type LevelResult struct {
	Entry *CacheEntry
	Found bool
	Level CacheLevel
}
