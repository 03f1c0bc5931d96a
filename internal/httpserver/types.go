package httpserver

import "go-cf-cache/internal/models"

// CacheRequest represents a cache operation request
type CacheRequest struct {
	Method   string                 `json:"method"`
	URL      string                 `json:"url"`
	Response *models.ResponseRecord `json:"response,omitempty"` // For record operations
}

// CacheResponse represents a cache operation response
type CacheResponse struct {
	Success     bool                   `json:"success"`
	Cacheable   bool                   `json:"cacheable,omitempty"`
	Stored      bool                   `json:"stored,omitempty"`
	Endpoint    string                 `json:"endpoint,omitempty"`
	Key         string                 `json:"key,omitempty"`
	TTL         int                    `json:"ttl,omitempty"` // seconds
	Error       string                 `json:"error,omitempty"`
	CacheStatus models.CacheStatus     `json:"cache_status,omitempty"` // HIT, MISS, or BYPASS
	CacheLevel  models.CacheLevel      `json:"cache_level,omitempty"`  // L1, L2, or MISS
	Response    *models.ResponseRecord `json:"response,omitempty"`
}

// PurgeRequest queues URLs to be purged from a zone
type PurgeRequest struct {
	Zone string   `json:"zone"`
	URLs []string `json:"urls"`
}

// PurgeResponse reports the URLs as they will be sent to Cloudflare
type PurgeResponse struct {
	Success bool     `json:"success"`
	URLs    []string `json:"urls"`
	Pending int      `json:"pending"`
}
