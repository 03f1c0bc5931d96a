package interfaces

import (
	"go-cf-cache/internal/models"
)

//go:generate mockgen -package=mock -source=cache_rules_classifier.go -destination=mock/cache_rules_classifier.go

// CacheRulesClassifier maps request URLs to cache keys and TTLs
type CacheRulesClassifier interface {
	// Classify returns cache information for the first endpoint rule matching url
	Classify(url string) (models.CacheInfo, bool)
	// CacheGroup returns the namespace all keys are stored under
	CacheGroup() string
}
