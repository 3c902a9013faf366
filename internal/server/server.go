package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/core/simulation"
)

// Feed is the part of the runner the server talks to. Both methods are safe for concurrent use.
type Feed interface {
	RequestSpawn(from, to models.Approach) error
	Latest() simulation.Snapshot
}

// Server exposes snapshots over HTTP and streams bus events to websocket clients.
type Server struct {
	feed   Feed
	events bus.EventBus
	hub    *hub

	httpServer *http.Server
	listener   net.Listener
	sub        bus.Subscription

	running atomic.Bool
	closed  atomic.Bool

	config config.Server
	logger log.Log

	workerGroup sync.WaitGroup
}

// New builds a server. events may be nil, in which case websocket clients only get the initial snapshot.
func New(feed Feed, events bus.EventBus, cfg config.Server, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "server"))

	s := &Server{
		feed:   feed,
		events: events,
		config: cfg,
		logger: logger,
	}
	s.hub = newHub(cfg, logger)
	s.httpServer = &http.Server{Handler: s.Handler()}

	return s
}

// Handler routes the HTTP and websocket endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /spawn", s.handleSpawn)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener

	if s.events != nil {
		sub, err := s.events.SubscribeAll(s.hub.forward)
		if err != nil {
			_ = listener.Close()
			s.running.Store(false)
			return err
		}
		s.sub = sub
	}

	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))

	return nil
}

// Stop shuts the HTTP server down and disconnects every websocket client.
// A stopped server cannot be started again.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.closed.Store(true)

	s.logger.Info("Stopping server")

	if s.sub != nil {
		_ = s.sub.Cancel()
		s.sub = nil
	}
	s.hub.closeAll()

	err := s.httpServer.Shutdown(ctx)
	s.workerGroup.Wait()

	s.logger.Info("Server stopped")

	return err
}

// Close stops the server if needed and keeps it from starting.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.running.Load() {
		return s.Stop(context.Background())
	}
	return nil
}

// Addr is the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	return Stats{
		ClientCount: s.hub.count(),
		Dropped:     s.hub.dropped.Load(),
		Running:     s.running.Load(),
	}
}

// Stats contains server statistics
type Stats struct {
	ClientCount int    `json:"client_count"`
	Dropped     uint64 `json:"dropped"`
	Running     bool   `json:"running"`
}
