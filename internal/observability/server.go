// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the service is ready to accept work.
type ReadinessChecker func() bool

// Login outcome labels for the login attempt counter.
const (
	LoginOutcomeSuccess = "success"
	LoginOutcomeInvalid = "invalid_credentials"
	LoginOutcomeLocked  = "locked"
	LoginOutcomeError   = "error"
)

// loginAttempts is a package-level counter so the auth service can record
// outcomes without holding a Server instance.
var loginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opsboard_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	},
	[]string{"outcome"},
)

// sessionsReaped counts sessions removed by the expiry reaper.
var sessionsReaped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "opsboard_sessions_reaped_total",
		Help: "Total number of expired sessions deleted by the reaper",
	},
)

// RecordLoginAttempt increments the login attempt counter for an outcome.
func RecordLoginAttempt(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordSessionsReaped adds to the reaped session counter.
func RecordSessionsReaped(n int64) {
	sessionsReaped.Add(float64(n))
}

// Metrics contains custom Prometheus metrics for Opsboard.
type Metrics struct {
	SessionsActive prometheus.Gauge
}

// NewMetrics creates and registers custom Opsboard metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsboard_sessions_active",
				Help: "Number of live session rows at last sweep",
			},
		),
	}

	reg.MustRegister(m.SessionsActive)
	reg.MustRegister(loginAttempts)
	reg.MustRegister(sessionsReaped)

	return m
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100").
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Create a new registry to avoid polluting the global one
	registry := prometheus.NewRegistry()

	// Register standard Go metrics
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Register custom metrics
	metrics := NewMetrics(registry)

	s := &Server{
		addr:     addr,
		registry: registry,
		metrics:  metrics,
		isReady:  readinessChecker,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Metrics returns the custom metrics for external updates.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins listening. Non-blocking; the HTTP server runs on its own
// goroutine until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener
	s.running.Store(true)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server error", "error", err)
		}
	}()

	slog.Info("observability server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.Swap(false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.Code("OBSERVABILITY_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok")) //nolint:errcheck // best-effort probe response
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if s.isReady != nil && !s.isReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready")) //nolint:errcheck // best-effort probe response
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready")) //nolint:errcheck // best-effort probe response
}
