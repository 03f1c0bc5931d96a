package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsServer exposes /metrics on a TCP port for Prometheus scraping
type MetricsServer struct {
	logger *zap.Logger
	server *http.Server
}

// NewMetricsServer creates a metrics server listening on addr, e.g. ":9090"
func NewMetricsServer(addr string, logger *zap.Logger) *MetricsServer {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return &MetricsServer{
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Serve accepts connections on l until Stop is called
func (m *MetricsServer) Serve(l net.Listener) error {
	m.logger.Info("Starting metrics server", zap.String("address", l.Addr().String()))
	if err := m.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Stop is called
func (m *MetricsServer) Start() error {
	l, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return err
	}
	return m.Serve(l)
}

// Stop stops the metrics server
func (m *MetricsServer) Stop(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
