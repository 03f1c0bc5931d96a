package cache_rules

import (
	"go.uber.org/zap"

	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/models"
)

// Classifier implements the CacheRulesClassifier interface
type Classifier struct {
	logger *zap.Logger
	config interfaces.CacheRulesConfig
}

// Ensure Classifier implements the CacheRulesClassifier interface
var _ interfaces.CacheRulesClassifier = (*Classifier)(nil)

// NewClassifier creates a new Classifier instance
func NewClassifier(logger *zap.Logger, config interfaces.CacheRulesConfig) *Classifier {
	return &Classifier{
		logger: logger,
		config: config,
	}
}

// Classify implements CacheRulesClassifier interface.
// Rules are tried in order and the first match wins.
func (c *Classifier) Classify(url string) (models.CacheInfo, bool) {
	if url == "" {
		return models.CacheInfo{}, false
	}

	rules := c.config.GetRules()
	for i := range rules {
		if info, ok := rules[i].Match(url); ok {
			return info, true
		}
	}

	return models.CacheInfo{}, false
}

// CacheGroup implements CacheRulesClassifier interface
func (c *Classifier) CacheGroup() string {
	return c.config.GetCacheGroup()
}
