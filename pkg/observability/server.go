package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/metric"
)

const healthStatusOK = "ok"

// MetricsServer exposes liveness and Prometheus metrics endpoints over
// HTTP so long-running walks can be scraped while they work.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	provider metric.MeterProvider
}

// NewMetricsServer starts an HTTP server at addr with /healthz and
// /metrics endpoints backed by a fresh Prometheus registry. Instruments
// must be created from [MetricsServer.Meter] to appear in scrape output.
func NewMetricsServer(addr string, logger *slog.Logger) (*MetricsServer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	handler, provider, err := PrometheusHandler()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/metrics", handler)

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux}

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", serveErr)
		}
	}()

	return &MetricsServer{server: srv, listener: listener, provider: provider}, nil
}

// Meter returns a meter whose instruments land in the scraped registry.
func (s *MetricsServer) Meter() metric.Meter {
	return s.provider.Meter(meterName)
}

// Addr returns the address the server is listening on.
func (s *MetricsServer) Addr() string {
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server.
func (s *MetricsServer) Close() error {
	err := s.server.Shutdown(context.Background())
	if err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}

// HealthHandler returns an [http.Handler] for liveness checks at /healthz.
// It always returns HTTP 200 with {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)

		data, err := json.Marshal(map[string]string{"status": healthStatusOK})
		if err != nil {
			return
		}

		_, _ = rw.Write(data)
	})
}
