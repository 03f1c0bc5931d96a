package main

import (
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
)

const defaultKeyDBURL = "redis://keydb:6379"

// GetKeyDBURL returns KeyDB URL with the following priority:
// 1. KEYDB_URL environment variable
// 2. CACHE_KEYDB_URL_FILE file content
// 3. Default value
func GetKeyDBURL(logger *zap.Logger) string {
	if keydbURL := os.Getenv("KEYDB_URL"); keydbURL != "" {
		logger.Debug("Using KeyDB URL from environment variable")
		return keydbURL
	}

	connectionFile := getEnv("CACHE_KEYDB_URL_FILE", "/app/.keydb-url")
	if content, err := os.ReadFile(connectionFile); err == nil {
		if keydbURL := strings.TrimSpace(string(content)); keydbURL != "" {
			logger.Debug("Using KeyDB URL from connection file", zap.String("file", connectionFile))
			return keydbURL
		}
	} else {
		logger.Debug("KeyDB connection file not found", zap.String("file", connectionFile))
	}

	logger.Debug("Using default KeyDB URL")
	return defaultKeyDBURL
}

// GetSocketPath returns the Unix socket path for the sidecar API
func GetSocketPath() string {
	return getEnv("CACHE_SOCKET_PATH", "/tmp/cache.sock")
}

// GetMetricsPort returns the TCP port the metrics server listens on
func GetMetricsPort() string {
	return getEnv("METRICS_PORT", "9090")
}

// RedactURL hides the password of a connection URL for logging
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
