package interfaces

import "go-cf-cache/internal/models"

//go:generate mockgen -package=mock -source=cache_rules_config.go -destination=mock/cache_rules_config.go

// CacheRulesConfig exposes the loaded endpoint rule table
type CacheRulesConfig interface {
	// GetRules returns the endpoint rules in evaluation order
	GetRules() []models.EndpointRule
	// GetCacheGroup returns the configured cache group
	GetCacheGroup() string
}
