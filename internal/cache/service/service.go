package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"go-cf-cache/internal/cache"
	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/metrics"
	"go-cf-cache/internal/models"
	"go-cf-cache/internal/transport"
	"go-cf-cache/internal/utils"
)

const (
	// HeaderCacheStatus marks responses served by the read-through cache
	HeaderCacheStatus = "X-Cache-Status"
	// HeaderCacheLevel names the cache level that served a response
	HeaderCacheLevel = "X-Cache-Level"
)

// Skip reasons reported by Record
const (
	SkipReasonMethod  = "method"
	SkipReasonStatus  = "status"
	SkipReasonNoMatch = "no_match"
	SkipReasonKey     = "key"
	SkipReasonEncode  = "encode"
	SkipReasonNil     = "nil_response"
)

// HTTPCache is the read-through cache for Cloudflare API GET responses
type HTTPCache struct {
	cache           interfaces.LevelAwareCache
	keyBuilder      interfaces.KeyBuilder
	cacheClassifier interfaces.CacheRulesClassifier
	logger          *zap.Logger
}

// NewHTTPCache creates a new read-through cache over a level-aware store
func NewHTTPCache(store interfaces.LevelAwareCache, cacheClassifier interfaces.CacheRulesClassifier, logger *zap.Logger) *HTTPCache {
	return &HTTPCache{
		cache:           store,
		keyBuilder:      cache.NewKeyBuilder(),
		cacheClassifier: cacheClassifier,
		logger:          logger,
	}
}

// LookupResult is the outcome of a cache lookup
type LookupResult struct {
	Status models.CacheStatus
	Level  models.CacheLevel
	Info   models.CacheInfo
	Key    string
	Record *models.ResponseRecord
}

// Classify returns cache information for url
func (s *HTTPCache) Classify(url string) (models.CacheInfo, bool) {
	return s.cacheClassifier.Classify(url)
}

// Lookup checks the cache for a request. Non-GET and unmatched requests are BYPASS.
func (s *HTTPCache) Lookup(ctx context.Context, method, url string) LookupResult {
	bypass := LookupResult{Status: models.CacheStatusBypass, Level: models.CacheLevelMiss}

	if method != http.MethodGet {
		return bypass
	}

	info, ok := s.cacheClassifier.Classify(url)
	if !ok {
		return bypass
	}

	key, err := s.keyBuilder.Build(s.cacheClassifier.CacheGroup(), info.Key)
	if err != nil {
		s.logger.Warn("Failed to build cache key", zap.String("url", url), zap.Error(err))
		metrics.RecordCacheError("service", "key")
		bypass.Info = info
		return bypass
	}

	metrics.RecordCacheRequest(info.Endpoint)

	miss := LookupResult{
		Status: models.CacheStatusMiss,
		Level:  models.CacheLevelMiss,
		Info:   info,
		Key:    key,
	}

	result := s.cache.GetWithLevel(ctx, key)
	if !result.Found || result.Entry == nil {
		metrics.RecordCacheMiss(info.Endpoint)
		return miss
	}

	record, err := models.DecodeResponseRecord(result.Entry.Data)
	if err != nil {
		s.logger.Debug("Ignoring malformed cached response",
			zap.String("key", key),
			zap.String("level", string(result.Level)),
			zap.Error(err))
		metrics.RecordCacheError(result.Level.Label(), "decode")
		metrics.RecordCacheMiss(info.Endpoint)
		return miss
	}

	metrics.RecordCacheHit(info.Endpoint, result.Level.Label())

	return LookupResult{
		Status: models.CacheStatusHit,
		Level:  result.Level,
		Info:   info,
		Key:    key,
		Record: record,
	}
}

// Intercept returns a cached response for a GET to a cacheable URL. When ok
// is true the caller must not perform the network call.
func (s *HTTPCache) Intercept(ctx context.Context, method, url string) (*models.ResponseRecord, bool) {
	result := s.Lookup(ctx, method, url)
	if result.Record == nil {
		return nil, false
	}
	return result.Record, true
}

// Record stores a successful GET response to a cacheable URL, overwriting any
// previous entry. It reports whether the response was stored.
func (s *HTTPCache) Record(ctx context.Context, method, url string, resp *models.ResponseRecord) bool {
	if resp == nil {
		metrics.RecordCacheSkip(SkipReasonNil)
		return false
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordCacheSkip(SkipReasonStatus)
		return false
	}
	if method != http.MethodGet {
		metrics.RecordCacheSkip(SkipReasonMethod)
		return false
	}

	info, ok := s.cacheClassifier.Classify(url)
	if !ok {
		metrics.RecordCacheSkip(SkipReasonNoMatch)
		return false
	}

	key, err := s.keyBuilder.Build(s.cacheClassifier.CacheGroup(), info.Key)
	if err != nil {
		s.logger.Warn("Failed to build cache key", zap.String("url", url), zap.Error(err))
		metrics.RecordCacheSkip(SkipReasonKey)
		return false
	}

	data, err := resp.Encode()
	if err != nil {
		s.logger.Error("Failed to encode response", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheSkip(SkipReasonEncode)
		return false
	}

	s.cache.Set(ctx, key, data, info.TTL)
	metrics.RecordCacheStore(info.Endpoint, len(data))

	s.logger.Debug("Stored response",
		zap.String("key", key),
		zap.String("endpoint", info.Endpoint),
		zap.Duration("ttl", info.TTL))

	return true
}

// Register installs the cache on rt: lookups as a pre-request hook and
// stores as a response hook
func (s *HTTPCache) Register(rt *transport.RoundTripper) {
	rt.OnPreRequest(s.preRequest)
	rt.OnResponse(s.onResponse)
}

func (s *HTTPCache) preRequest(req *http.Request) (*http.Response, bool) {
	result := s.Lookup(req.Context(), req.Method, req.URL.String())
	if result.Record == nil {
		return nil, false
	}

	resp := utils.ResponseFromRecord(result.Record, req)
	resp.Header.Set(HeaderCacheStatus, string(models.CacheStatusHit))
	resp.Header.Set(HeaderCacheLevel, string(result.Level))
	return resp, true
}

func (s *HTTPCache) onResponse(req *http.Request, resp *http.Response) {
	// Cheap checks first so unrelated responses are not buffered
	if req.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
		return
	}
	if _, ok := s.cacheClassifier.Classify(req.URL.String()); !ok {
		return
	}

	record, err := utils.RecordFromResponse(resp)
	if err != nil {
		s.logger.Warn("Failed to capture response", zap.String("url", req.URL.String()), zap.Error(err))
		metrics.RecordCacheError("service", "read")
		return
	}
	s.Record(req.Context(), req.Method, req.URL.String(), record)
}
