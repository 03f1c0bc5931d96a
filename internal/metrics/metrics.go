package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Core request/hit/miss counters
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cacheable requests seen by the gate",
		},
		[]string{"endpoint"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"endpoint"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"endpoint"},
	)

	// Hits broken down by the level that served them
	CacheLevelHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_level_hits_total",
			Help: "Total number of cache hits per level",
		},
		[]string{"level"},
	)

	CacheStores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_stores_total",
			Help: "Total number of responses written to the cache",
		},
		[]string{"endpoint"},
	)

	CacheStoreBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_bytes_total",
			Help: "Total bytes of encoded responses written to the cache",
		},
		[]string{"endpoint"},
	)

	CacheSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_skips_total",
			Help: "Total number of responses not stored, by reason",
		},
		[]string{"reason"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache errors",
		},
		[]string{"level", "kind"},
	)

	// Get operation latency only
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Duration of cache get operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "level"},
	)

	// L1 capacity metrics only (if L1 is in-memory)
	CacheCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_capacity_bytes",
			Help: "L1 cache capacity in bytes",
		},
		[]string{"level"}, // only "l1"
	)

	CacheUsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_used_bytes",
			Help: "L1 cache used space in bytes",
		},
		[]string{"level"}, // only "l1"
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_keys",
			Help: "Number of keys held by a cache level",
		},
		[]string{"level"},
	)

	// Purge batching
	PurgeURLs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purge_urls_total",
			Help: "Total number of URLs queued for purge",
		},
		[]string{"status"}, // queued, duplicate
	)

	PurgeBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purge_batches_total",
			Help: "Total number of purge batches sent to Cloudflare",
		},
		[]string{"status"}, // success, error
	)

	// Cloudflare API traffic
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests that reached the Cloudflare API",
		},
		[]string{"method", "status_class"},
	)
)

var (
	allowedEndpoints   = map[string]bool{}
	allowedEndpointsMu sync.RWMutex
)

// InitializeAllowedEndpoints restricts endpoint label values to the known rule names
func InitializeAllowedEndpoints(names []string) {
	allowedEndpointsMu.Lock()
	defer allowedEndpointsMu.Unlock()

	allowedEndpoints = make(map[string]bool, len(names))
	for _, name := range names {
		allowedEndpoints[name] = true
	}
}

// normalizeEndpoint keeps label cardinality bounded
func normalizeEndpoint(endpoint string) string {
	allowedEndpointsMu.RLock()
	defer allowedEndpointsMu.RUnlock()

	if endpoint == "" {
		return "unknown"
	}
	if allowedEndpoints[endpoint] {
		return endpoint
	}
	return "other"
}

// statusClass maps an HTTP status code to 2xx, 4xx and so on
func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "error"
	}
}

// RecordCacheRequest records a cacheable request
func RecordCacheRequest(endpoint string) {
	CacheRequests.WithLabelValues(normalizeEndpoint(endpoint)).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(endpoint string, level string) {
	CacheHits.WithLabelValues(normalizeEndpoint(endpoint)).Inc()

	switch level {
	case "l1", "l2":
		CacheLevelHits.WithLabelValues(level).Inc()
	}
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(endpoint string) {
	CacheMisses.WithLabelValues(normalizeEndpoint(endpoint)).Inc()
}

// RecordCacheStore records a response written to the cache
func RecordCacheStore(endpoint string, size int) {
	ep := normalizeEndpoint(endpoint)
	CacheStores.WithLabelValues(ep).Inc()
	CacheStoreBytes.WithLabelValues(ep).Add(float64(size))
}

// RecordCacheSkip records a response that was not stored
func RecordCacheSkip(reason string) {
	CacheSkips.WithLabelValues(reason).Inc()
}

// RecordCacheError records a cache error
func RecordCacheError(level, kind string) {
	CacheErrors.WithLabelValues(level, kind).Inc()
}

// UpdateL1CacheCapacity updates L1 cache capacity metrics only
func UpdateL1CacheCapacity(capacity, used int64) {
	CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
	CacheUsed.WithLabelValues("l1").Set(float64(used))
}

// UpdateCacheKeys sets the key count of a level
func UpdateCacheKeys(level string, count int64) {
	CacheKeys.WithLabelValues(level).Set(float64(count))
}

// TimeCacheGetOperation returns a timer function for measuring cache get operation duration
func TimeCacheGetOperation(level string) func() {
	timer := prometheus.NewTimer(CacheOperationDuration.WithLabelValues("get", level))
	return func() {
		timer.ObserveDuration()
	}
}

// RecordPurgeURLs records URLs handed to the purge batcher
func RecordPurgeURLs(status string, count int) {
	PurgeURLs.WithLabelValues(status).Add(float64(count))
}

// RecordPurgeBatch records the outcome of one purge request
func RecordPurgeBatch(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	PurgeBatches.WithLabelValues(status).Inc()
}

// RecordUpstreamRequest records a request that reached Cloudflare. code is 0 on transport failure.
func RecordUpstreamRequest(method string, code int) {
	UpstreamRequests.WithLabelValues(method, statusClass(code)).Inc()
}
