package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"go-cf-cache/internal/apo"
	"go-cf-cache/internal/cache/l1"
	"go-cf-cache/internal/cache/l2"
	"go-cf-cache/internal/cache/multi"
	"go-cf-cache/internal/cache/noop"
	"go-cf-cache/internal/cache/service"
	"go-cf-cache/internal/cache_rules"
	"go-cf-cache/internal/cloudflare"
	"go-cf-cache/internal/config"
	"go-cf-cache/internal/httpserver"
	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/metrics"
	"go-cf-cache/internal/purge"
	"go-cf-cache/internal/transport"
)

// CompositionRoot holds all application dependencies and wires them together
type CompositionRoot struct {
	Config     *config.Config
	Logger     *zap.Logger
	CacheRules interfaces.CacheRulesClassifier

	L1Cache interfaces.Cache
	L2Cache interfaces.Cache

	Transport     *transport.RoundTripper
	HTTPCache     *service.HTTPCache
	Cloudflare    *cloudflare.Client
	PurgeBatcher  *purge.Batcher
	HTTPServer    *httpserver.Server
	MetricsServer *httpserver.MetricsServer
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Logger
// 2. Configuration and cache rules
// 3. Cache levels
// 4. HTTP cache, transport hooks and Cloudflare client
// 5. Purge batcher
// 6. Sidecar and metrics servers
func NewCompositionRoot() (*CompositionRoot, error) {
	root := &CompositionRoot{}

	if err := root.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := root.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := root.loadCacheRules(); err != nil {
		return nil, fmt.Errorf("failed to load cache rules: %w", err)
	}

	if err := root.initCacheComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache components: %w", err)
	}

	root.initServices()
	root.initHTTPServers()

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration
func (r *CompositionRoot) loadConfig() error {
	cfg, err := config.LoadConfig(getEnv("CACHE_CONFIG_FILE", "/app/cache_config.yaml"), r.Logger)
	if err != nil {
		return err
	}
	r.Config = cfg
	return nil
}

// loadCacheRules loads the endpoint rule table, falling back to the built-in
// rules when CACHE_RULES_FILE is not set
func (r *CompositionRoot) loadCacheRules() error {
	var (
		rules interfaces.CacheRulesConfig
		err   error
	)
	if rulesPath := os.Getenv("CACHE_RULES_FILE"); rulesPath != "" {
		rules, err = cache_rules.LoadCacheRulesConfig(rulesPath, r.Logger)
	} else {
		r.Logger.Info("CACHE_RULES_FILE not set, using built-in cache rules")
		rules, err = cache_rules.LoadDefaultCacheRulesConfig(r.Logger)
	}
	if err != nil {
		return err
	}

	if named, ok := rules.(interface{ GetEndpointNames() []string }); ok {
		metrics.InitializeAllowedEndpoints(named.GetEndpointNames())
	}

	r.CacheRules = cache_rules.NewClassifier(r.Logger, rules)
	return nil
}

// initCacheComponents initializes both cache levels
func (r *CompositionRoot) initCacheComponents() error {
	if err := r.initL1Cache(); err != nil {
		return fmt.Errorf("failed to initialize L1 cache: %w", err)
	}
	r.initL2Cache()
	return nil
}

// initL1Cache initializes the L1 cache (BigCache)
func (r *CompositionRoot) initL1Cache() error {
	if !r.Config.L1.Enabled {
		r.L1Cache = noop.NewNoOpCache()
		r.Logger.Info("BigCache (L1) disabled")
		return nil
	}

	l1Cache, err := l1.NewBigCache(&r.Config.L1, r.Logger)
	if err != nil {
		return err
	}
	r.L1Cache = l1Cache
	r.Logger.Info("BigCache (L1) initialized", zap.Int("size_mb", r.Config.L1.Size))
	return nil
}

// initL2Cache initializes the L2 cache (KeyDB). A connection failure
// degrades to running without L2.
func (r *CompositionRoot) initL2Cache() {
	if !r.Config.L2.Enabled {
		r.L2Cache = noop.NewNoOpCache()
		r.Logger.Info("KeyDB (L2) disabled")
		return
	}

	keydbURL := GetKeyDBURL(r.Logger)
	client, err := l2.NewRedisKeyDbClient(r.Config, keydbURL, r.Logger)
	if err != nil {
		r.Logger.Warn("Failed to connect to KeyDB, falling back to no L2 cache",
			zap.String("keydb_url", RedactURL(keydbURL)),
			zap.Error(err))
		r.L2Cache = noop.NewNoOpCache()
		return
	}

	r.L2Cache = l2.NewKeyDBCache(r.Config, client, r.Logger)
	r.Logger.Info("KeyDB (L2) initialized", zap.String("keydb_url", RedactURL(keydbURL)))
}

// initServices wires the read-through cache, the APO patch and the purge
// batcher around a single Cloudflare client
func (r *CompositionRoot) initServices() {
	store := multi.NewMultiCache(
		[]interfaces.Cache{r.L1Cache, r.L2Cache},
		r.Config.MultiCache.EnablePropagation,
		r.Logger,
	)
	r.HTTPCache = service.NewHTTPCache(store, r.CacheRules, r.Logger)

	r.Transport = transport.New(http.DefaultTransport, r.Logger)
	r.HTTPCache.Register(r.Transport)

	cf := r.Config.Cloudflare
	if r.Config.APO.Enabled {
		if cf.Domain == "" {
			r.Logger.Warn("APO patch enabled but no Cloudflare domain configured, skipping")
		} else {
			r.Transport.OnRequest(apo.Hook(cf.Domain, r.Logger))
			r.Logger.Info("APO hostname patch enabled", zap.String("domain", cf.Domain))
		}
	}

	httpClient := &http.Client{
		Transport: r.Transport,
		Timeout:   r.Config.GetCloudflareTimeout(),
	}
	r.Cloudflare = cloudflare.NewClient(httpClient, cf.APIURL, cf.APIToken, r.Logger)

	r.PurgeBatcher = purge.NewBatcher(
		r.Cloudflare,
		cf.Domain,
		r.Config.Purge.MaxBatchSize,
		r.Config.GetPurgeFlushInterval(),
		r.Logger,
	)
	r.PurgeBatcher.SetSendTimeout(r.Config.GetCloudflareTimeout())
}

// initHTTPServers initializes the sidecar API and the metrics endpoint
func (r *CompositionRoot) initHTTPServers() {
	r.HTTPServer = httpserver.NewServer(r.HTTPCache, r.PurgeBatcher, r.Cloudflare, r.Logger)
	if keydb, ok := r.L2Cache.(*l2.KeyDBCache); ok {
		r.HTTPServer.AddHealthCheck("keydb", keydb.Ping)
	}

	r.MetricsServer = httpserver.NewMetricsServer(":"+GetMetricsPort(), r.Logger)
}

// Shutdown stops background work, flushing queued purges
func (r *CompositionRoot) Shutdown(ctx context.Context) error {
	var errs []error

	if r.HTTPServer != nil {
		if err := r.HTTPServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
		}
	}
	if r.MetricsServer != nil {
		if err := r.MetricsServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if r.PurgeBatcher != nil {
		if err := r.PurgeBatcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush purges: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Cleanup releases cache resources and syncs the logger
func (r *CompositionRoot) Cleanup() error {
	var errs []error

	if bc, ok := r.L1Cache.(*l1.BigCache); ok {
		if err := bc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close L1 cache: %w", err))
		}
	}

	if kc, ok := r.L2Cache.(*l2.KeyDBCache); ok {
		if err := kc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close L2 cache: %w", err))
		}
	}

	if r.Logger != nil {
		_ = r.Logger.Sync()
	}

	return errors.Join(errs...)
}
