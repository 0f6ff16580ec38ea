// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package observability serves Prometheus metrics and the health probes on
// an address separate from the public API.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker reports nil when the service can serve traffic.
type ReadinessChecker func(ctx context.Context) error

const readinessTimeout = 3 * time.Second

type probeBody struct {
	Status string `json:"status"`
}

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr     string
	registry *prometheus.Registry
	metrics  *Metrics
	ready    ReadinessChecker
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewServer builds a server with a private registry carrying the Go and
// process collectors plus the application metrics. An addr of ":0" picks a
// free port.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		ready:    ready,
		logger:   logger.With("component", "observability"),
	}
}

// Metrics returns the application metrics.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Registry returns the server's Prometheus registry.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Handler returns the health and metrics routes.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))
	e.GET("/healthz/liveness", func(c echo.Context) error {
		return c.JSON(http.StatusOK, probeBody{Status: "ok"})
	})
	e.GET("/healthz/readiness", s.readiness)
	return e
}

func (s *Server) readiness(c echo.Context) error {
	if s.ready == nil {
		return c.JSON(http.StatusOK, probeBody{Status: "ok"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "readiness check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, probeBody{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, probeBody{Status: "ok"})
}

// Start listens on the configured address and serves in the background.
// The returned channel yields a serve failure and is closed once serving ends.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.listener = listener
	s.srv = srv

	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("observability server failed", "error", err)
			errs <- err
		}
	}()

	s.logger.Info("observability server listening", "addr", listener.Addr().String())
	return errs, nil
}

// Stop shuts the server down. It is a no-op when the server is not running.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return oops.Code("OBSERVABILITY_SHUTDOWN_FAILED").Wrap(err)
	}
	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
