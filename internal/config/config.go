package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	L1         L1Config         `yaml:"l1"`
	L2         L2Config         `yaml:"l2"`
	MultiCache MultiCacheConfig `yaml:"multi_cache"`
	Cloudflare CloudflareConfig `yaml:"cloudflare"`
	Purge      PurgeConfig      `yaml:"purge"`
	APO        APOConfig        `yaml:"apo"`
}

// L1Config configures the in-process BigCache level
type L1Config struct {
	Enabled      bool `yaml:"enabled"`
	Size         int  `yaml:"size" validate:"gte=0"`           // MB
	MaxEntrySize int  `yaml:"max_entry_size" validate:"gte=0"` // bytes
}

// L2Config configures the shared KeyDB level
type L2Config struct {
	Enabled    bool             `yaml:"enabled"`
	Connection ConnectionConfig `yaml:"connection"`
	Keepalive  KeepaliveConfig  `yaml:"keepalive"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ConnectionConfig holds KeyDB timeouts in milliseconds
type ConnectionConfig struct {
	ConnectTimeout int `yaml:"connect_timeout" validate:"gte=0"`
	SendTimeout    int `yaml:"send_timeout" validate:"gte=0"`
	ReadTimeout    int `yaml:"read_timeout" validate:"gte=0"`
}

// KeepaliveConfig holds KeyDB pool settings
type KeepaliveConfig struct {
	PoolSize       int `yaml:"pool_size" validate:"gte=0"`
	MaxIdleTimeout int `yaml:"max_idle_timeout" validate:"gte=0"` // milliseconds
}

// CacheConfig bounds entries written to KeyDB
type CacheConfig struct {
	MaxTTL int `yaml:"max_ttl" validate:"gte=0"` // seconds
}

// MultiCacheConfig controls L2 -> L1 backfill
type MultiCacheConfig struct {
	EnablePropagation bool `yaml:"enable_propagation"`
}

// CloudflareConfig points the client at the Cloudflare API
type CloudflareConfig struct {
	APIURL   string `yaml:"api_url" validate:"omitempty,url"`
	APIToken string `yaml:"api_token"`
	Domain   string `yaml:"domain" validate:"omitempty,hostname_rfc1123"`
	Timeout  int    `yaml:"timeout" validate:"gte=0"` // milliseconds
}

// PurgeConfig controls purge batching
type PurgeConfig struct {
	FlushInterval int `yaml:"flush_interval" validate:"gte=0"` // milliseconds
	MaxBatchSize  int `yaml:"max_batch_size" validate:"gte=0,lte=30"`
}

// APOConfig toggles the APO hostname patch
type APOConfig struct {
	Enabled bool `yaml:"enabled"`
}

const (
	DefaultCloudflareAPIURL = "https://api.cloudflare.com/client/v4"
	// MaxPurgeBatchSize is Cloudflare's limit of files per purge request
	MaxPurgeBatchSize = 30
)

var validate = validator.New()

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// applyEnvOverrides lets secrets and the target domain come from the environment
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CLOUDFLARE_DOMAIN"); v != "" {
		c.Cloudflare.Domain = v
	}
	if v := os.Getenv("CLOUDFLARE_API_TOKEN"); v != "" {
		c.Cloudflare.APIToken = v
	}
	if v := os.Getenv("CLOUDFLARE_API_URL"); v != "" {
		c.Cloudflare.APIURL = v
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// L1 defaults
	if c.L1.Size == 0 {
		c.L1.Size = 100
	}
	if c.L1.MaxEntrySize == 0 {
		c.L1.MaxEntrySize = 1024 * 1024
	}

	// L2 connection defaults
	if c.L2.Connection.ConnectTimeout == 0 {
		c.L2.Connection.ConnectTimeout = 1000
	}
	if c.L2.Connection.SendTimeout == 0 {
		c.L2.Connection.SendTimeout = 1000
	}
	if c.L2.Connection.ReadTimeout == 0 {
		c.L2.Connection.ReadTimeout = 1000
	}

	// L2 keepalive defaults
	if c.L2.Keepalive.PoolSize == 0 {
		c.L2.Keepalive.PoolSize = 10
	}
	if c.L2.Keepalive.MaxIdleTimeout == 0 {
		c.L2.Keepalive.MaxIdleTimeout = 10000
	}

	// L2 cache defaults
	if c.L2.Cache.MaxTTL == 0 {
		c.L2.Cache.MaxTTL = 86400
	}

	// Cloudflare defaults
	if c.Cloudflare.APIURL == "" {
		c.Cloudflare.APIURL = DefaultCloudflareAPIURL
	}
	if c.Cloudflare.Timeout == 0 {
		c.Cloudflare.Timeout = 30000
	}

	// Purge defaults
	if c.Purge.FlushInterval == 0 {
		c.Purge.FlushInterval = 10000
	}
	if c.Purge.MaxBatchSize == 0 {
		c.Purge.MaxBatchSize = MaxPurgeBatchSize
	}
}

// GetConnectTimeout returns connect timeout as time.Duration
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.L2.Connection.ConnectTimeout) * time.Millisecond
}

// GetSendTimeout returns send timeout as time.Duration
func (c *Config) GetSendTimeout() time.Duration {
	return time.Duration(c.L2.Connection.SendTimeout) * time.Millisecond
}

// GetReadTimeout returns read timeout as time.Duration
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.L2.Connection.ReadTimeout) * time.Millisecond
}

// GetMaxIdleTimeout returns max idle timeout as time.Duration
func (c *Config) GetMaxIdleTimeout() time.Duration {
	return time.Duration(c.L2.Keepalive.MaxIdleTimeout) * time.Millisecond
}

// GetMaxTTL returns the longest TTL written to L2
func (c *Config) GetMaxTTL() time.Duration {
	return time.Duration(c.L2.Cache.MaxTTL) * time.Second
}

// GetCloudflareTimeout returns the upstream request timeout
func (c *Config) GetCloudflareTimeout() time.Duration {
	return time.Duration(c.Cloudflare.Timeout) * time.Millisecond
}

// GetPurgeFlushInterval returns how often queued purges are sent
func (c *Config) GetPurgeFlushInterval() time.Duration {
	return time.Duration(c.Purge.FlushInterval) * time.Millisecond
}
