package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-cf-cache/internal/cache/service"
	"go-cf-cache/internal/cloudflare"
	"go-cf-cache/internal/purge"
)

const maxRequestBody = 10 << 20 // 10MB

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server represents the sidecar HTTP API
type Server struct {
	cache    *service.HTTPCache
	purges   *purge.Batcher
	upstream *cloudflare.Client
	logger   *zap.Logger
	server   *http.Server
	checks   map[string]HealthCheck
}

// NewServer creates a new sidecar HTTP server
func NewServer(cache *service.HTTPCache, purges *purge.Batcher, upstream *cloudflare.Client, logger *zap.Logger) *Server {
	s := &Server{
		cache:    cache,
		purges:   purges,
		upstream: upstream,
		logger:   logger,
		checks:   make(map[string]HealthCheck),
	}
	s.server = &http.Server{
		Handler:      s.createRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// AddHealthCheck registers a dependency check reported by /health
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// StartUnixSocket serves the HTTP API on a Unix socket until Stop is called
func (s *Server) StartUnixSocket(socketPath string) error {
	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		s.logger.Warn("Failed to remove existing socket file", zap.String("path", socketPath), zap.Error(err))
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(socketPath, 0660); err != nil {
		s.logger.Warn("Failed to set socket permissions", zap.String("path", socketPath), zap.Error(err))
	}

	s.logger.Info("Starting sidecar HTTP server on Unix socket", zap.String("socket_path", socketPath))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping sidecar HTTP server")
	return s.server.Shutdown(ctx)
}

// createRouter creates and configures the HTTP router
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()

	// Cache endpoints
	router.HandleFunc("/cache/lookup", s.handleLookup).Methods("POST")
	router.HandleFunc("/cache/record", s.handleRecord).Methods("POST")
	router.HandleFunc("/cache/info", s.handleCacheInfo).Methods("POST")

	// Cloudflare endpoints
	router.HandleFunc("/purge", s.handlePurge).Methods("POST")
	router.HandleFunc("/cf/{path:.*}", s.handleCloudflareProxy).Methods("GET", "POST", "PATCH", "PUT", "DELETE")

	// Health check
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
		"time":   time.Now().UTC(),
	})
}

// parseRequest parses JSON request body
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

// writeResponse writes a 200 JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	s.writeJSON(w, http.StatusOK, v)
}

// writeErrorResponse writes error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// writeJSON sets the content type before the status line is written
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
