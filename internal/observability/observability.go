// Package observability provides Prometheus metrics and the optional
// /metrics endpoint for the realtime loop.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guardiavista/guardia-go/internal/logging"
	"github.com/guardiavista/guardia-go/internal/observability/metrics"
)

const shutdownTimeout = 5 * time.Second

// Metrics holds all metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Pipeline *metrics.PipelineMetrics
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Pipeline: pipelineMetrics,
	}, nil
}

// RegisterHandlers attaches the /metrics handler to the given mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Endpoint serves the metrics over HTTP for the realtime loop.
type Endpoint struct {
	server  *http.Server
	metrics *Metrics
}

// NewEndpoint creates a metrics endpoint listening on the given port.
func NewEndpoint(port int, m *Metrics) *Endpoint {
	mux := http.NewServeMux()
	m.RegisterHandlers(mux)
	return &Endpoint{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		metrics: m,
	}
}

// Start runs the HTTP server until the context is canceled.
func (e *Endpoint) Start(ctx context.Context) {
	log := logging.ForService("observability")

	go func() {
		log.Info("metrics endpoint starting", "address", e.server.Addr)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.server.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown error", "error", err)
		}
	}()
}
