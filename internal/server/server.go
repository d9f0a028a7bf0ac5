// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-avp.
//
// go-avp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package server runs the virtual NexusClaw device: a TCP listener that
// stands in for the USB CDC serial port, feeding line-delimited AVP
// requests into a single protocol engine backed by the in-memory secure
// element. The engine serializes dispatch, so concurrent connections
// observe a linearizable operation sequence exactly as a single serial
// host would.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-avp/internal/config"
	"github.com/jeremyhahn/go-avp/internal/transport"
	"github.com/jeremyhahn/go-avp/pkg/backend"
	"github.com/jeremyhahn/go-avp/pkg/backend/memory"
	"github.com/jeremyhahn/go-avp/pkg/correlation"
	"github.com/jeremyhahn/go-avp/pkg/engine"
	"github.com/jeremyhahn/go-avp/pkg/logging"
)

// Server is the simulator daemon.
type Server struct {
	cfg     *config.Config
	engine  *engine.Engine
	element *memory.Backend
	logger  *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	metrics  *http.Server
	wg       sync.WaitGroup
}

// New builds a simulator from configuration.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Debug)

	seed := cfg.Device.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	element := memory.New(
		memory.WithSeed(seed),
		memory.WithPIN(cfg.Device.PIN),
		memory.WithClock(uint32(time.Now().Unix())),
		memory.WithDeviceInfo(backend.DeviceInfo{
			Model:    cfg.Device.Model,
			Serial:   cfg.Device.Serial,
			Firmware: cfg.Device.Firmware,
		}),
	)

	return &Server{
		cfg:     cfg,
		engine:  engine.New(element, engine.WithLogger(logger.With("component", "engine"))),
		element: element,
		logger:  logger,
	}, nil
}

// Start opens the listeners and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("virtual device listening",
		"address", listener.Addr().String(),
		"serial", s.cfg.Device.Serial)

	if s.cfg.Metrics.Enabled {
		s.startMetrics()
	}

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}

	s.wg.Wait()
	return nil
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	ctx = correlation.WithRequestID(ctx, correlation.New())
	logger := s.logger.With(
		"remote", conn.RemoteAddr().String(),
		"conn_id", correlation.RequestID(ctx))
	logger.Info("host connected")
	if err := transport.Serve(ctx, conn, s.engine, logger); err != nil &&
		!errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
		logger.Warn("connection closed with error", "error", err)
		return
	}
	logger.Info("host disconnected")
}

func (s *Server) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         s.cfg.Metrics.Listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.metrics = srv
	s.mu.Unlock()

	go func() {
		s.logger.Info("metrics endpoint listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("metrics server stopped", "error", err)
		}
	}()
}

// Shutdown closes the listeners and discards the active session, mirroring
// a device power cycle. In-flight connections are unwound by their contexts;
// the secure element's stored slots persist only for the life of the
// process.
func (s *Server) Shutdown() {
	s.engine.Invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	if s.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.Shutdown(shutdownCtx)
		s.metrics = nil
	}
}

// Addr returns the bound listener address, for tests that listen on :0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Element exposes the simulated secure element so operators and tests can
// advance the virtual clock.
func (s *Server) Element() *memory.Backend {
	return s.element
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
		<-ch
		os.Exit(1)
	}()
	return ctx
}
