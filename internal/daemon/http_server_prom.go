package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
)

// MetricsServer exposes a Prometheus registry over HTTP at /metrics.
type MetricsServer struct {
	srv      *http.Server
	listener net.Listener
}

// NewMetricsServer registers runtime collectors on reg and binds addr.
func NewMetricsServer(addr string, reg *prom.Registry) (*MetricsServer, error) {
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &MetricsServer{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: ln,
	}, nil
}

// Addr is the bound address.
func (m *MetricsServer) Addr() string { return m.listener.Addr().String() }

// Serve blocks until the server is shut down.
func (m *MetricsServer) Serve() error {
	slog.Info("Serving metrics", slog.String("addr", m.Addr()))
	if err := m.srv.Serve(m.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", logfields.Error(err))
		return err
	}
	return nil
}

// Shutdown stops the server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
