package cache_rules

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/models"
)

// CacheConfig implements the CacheRulesConfig interface
type CacheConfig struct {
	config *CacheRulesConfig
	rules  []models.EndpointRule
	logger *zap.Logger
}

// Ensure CacheConfig implements the CacheRulesConfig interface
var _ interfaces.CacheRulesConfig = (*CacheConfig)(nil)

// NewCacheConfig compiles the endpoint table. The config must already be valid.
func NewCacheConfig(config *CacheRulesConfig, logger *zap.Logger) (*CacheConfig, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	rules := make([]models.EndpointRule, 0, len(config.Endpoints))
	for _, ep := range config.Endpoints {
		re, err := regexp.Compile(ep.Pattern)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: invalid pattern: %w", ep.Name, err)
		}
		rules = append(rules, models.EndpointRule{
			Name:        ep.Name,
			Pattern:     re,
			KeyTemplate: ep.Key,
			TTL:         ep.TTL,
		})
	}

	return &CacheConfig{
		config: config,
		rules:  rules,
		logger: logger,
	}, nil
}

// GetRules implements CacheRulesConfig interface
func (cr *CacheConfig) GetRules() []models.EndpointRule {
	return cr.rules
}

// GetCacheGroup implements CacheRulesConfig interface
func (cr *CacheConfig) GetCacheGroup() string {
	if cr.config.CacheGroup == "" {
		return DefaultCacheGroup
	}
	return cr.config.CacheGroup
}

// GetEndpointNames returns configured endpoint names in evaluation order
func (cr *CacheConfig) GetEndpointNames() []string {
	names := make([]string, 0, len(cr.rules))
	for _, r := range cr.rules {
		names = append(names, r.Name)
	}
	return names
}

// validateConfig validates the cache rules configuration structure
func validateConfig(config *CacheRulesConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("missing endpoints section")
	}

	seen := make(map[string]struct{}, len(config.Endpoints))
	for i, ep := range config.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("endpoints[%d]: missing name", i)
		}
		if _, dup := seen[ep.Name]; dup {
			return fmt.Errorf("endpoints[%d]: duplicate name %q", i, ep.Name)
		}
		seen[ep.Name] = struct{}{}

		if !strings.HasPrefix(ep.Pattern, "^") {
			return fmt.Errorf("endpoint %q: pattern must be anchored with ^", ep.Name)
		}
		re, err := regexp.Compile(ep.Pattern)
		if err != nil {
			return fmt.Errorf("endpoint %q: invalid pattern: %w", ep.Name, err)
		}
		if ep.Key == "" {
			return fmt.Errorf("endpoint %q: missing key", ep.Name)
		}
		if err := checkKeyTemplate(re, ep.Key); err != nil {
			return fmt.Errorf("endpoint %q: %w", ep.Name, err)
		}
		if ep.TTL <= 0 {
			return fmt.Errorf("endpoint %q: ttl must be positive", ep.Name)
		}
	}

	return nil
}

var templateRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// checkKeyTemplate rejects ${name} references to groups the pattern lacks
func checkKeyTemplate(re *regexp.Regexp, key string) error {
	for _, m := range templateRef.FindAllStringSubmatch(key, -1) {
		if re.SubexpIndex(m[1]) < 0 {
			return fmt.Errorf("key references unknown capture %q", m[1])
		}
	}
	return nil
}
