package cache_rules

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-cf-cache/internal/interfaces"
)

// LoadCacheRulesConfig loads cache rules from a YAML file and returns a config reader
func LoadCacheRulesConfig(rulesPath string, logger *zap.Logger) (interfaces.CacheRulesConfig, error) {
	logger.Info("Loading cache rules config", zap.String("path", rulesPath))

	file, err := os.Open(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache rules file: %w", err)
	}
	defer file.Close()

	var config CacheRulesConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML cache rules: %w", err)
	}

	return buildCacheConfig(&config, logger)
}

// LoadDefaultCacheRulesConfig returns the built-in endpoint table
func LoadDefaultCacheRulesConfig(logger *zap.Logger) (interfaces.CacheRulesConfig, error) {
	logger.Info("Using built-in cache rules")
	return buildCacheConfig(DefaultCacheRulesConfig(), logger)
}

func buildCacheConfig(config *CacheRulesConfig, logger *zap.Logger) (interfaces.CacheRulesConfig, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("cache rules validation failed: %w", err)
	}

	cacheConfig, err := NewCacheConfig(config, logger)
	if err != nil {
		return nil, fmt.Errorf("cache rules validation failed: %w", err)
	}

	logger.Info("Cache rules config loaded successfully",
		zap.String("cache_group", cacheConfig.GetCacheGroup()),
		zap.Strings("endpoints", cacheConfig.GetEndpointNames()))

	return cacheConfig, nil
}
