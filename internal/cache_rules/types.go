package cache_rules

import (
	"time"
)

// EndpointRuleConfig is the YAML form of a cacheable endpoint
type EndpointRuleConfig struct {
	Name    string        `yaml:"name"`
	Pattern string        `yaml:"pattern"`
	Key     string        `yaml:"key"`
	TTL     time.Duration `yaml:"ttl"`
}

// CacheRulesConfig represents the cache rules configuration
type CacheRulesConfig struct {
	CacheGroup string               `yaml:"cache_group"`
	Endpoints  []EndpointRuleConfig `yaml:"endpoints"`
}

const (
	// DefaultCacheGroup keeps Cloudflare responses apart from other cached data
	DefaultCacheGroup = "cloudflare-helper"

	TTLAlwaysUseHTTPS = 3600 * time.Second
	TTLPageRules      = 600 * time.Second
)

// DefaultCacheRulesConfig returns the built-in endpoint table
func DefaultCacheRulesConfig() *CacheRulesConfig {
	return &CacheRulesConfig{
		CacheGroup: DefaultCacheGroup,
		Endpoints: []EndpointRuleConfig{
			{
				Name:    "always_use_https",
				Pattern: `^https://api\.cloudflare\.com/client/v4/zones/(?P<zone>[0-9a-f]{32})/settings/always_use_https`,
				Key:     "cloudflare:settings:${zone}:always_use_https",
				TTL:     TTLAlwaysUseHTTPS,
			},
			{
				Name:    "pagerules",
				Pattern: `^https://api\.cloudflare\.com/client/v4/zones/(?P<zone>[0-9a-f]{32})/pagerules\?status=(?P<status>[a-z]+)`,
				Key:     "cloudflare:pagerules:${zone}:${status}",
				TTL:     TTLPageRules,
			},
		},
	}
}

// AlwaysUseHTTPSKey returns the cache key of a zone's always_use_https setting
func AlwaysUseHTTPSKey(zone string) string {
	return "cloudflare:settings:" + zone + ":always_use_https"
}

// PageRulesKey returns the cache key of a zone's page rules filtered by status
func PageRulesKey(zone, status string) string {
	return "cloudflare:pagerules:" + zone + ":" + status
}
