// Package server exposes the live finger state over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/fingerlink/internal/store"
)

// Config holds the server configuration.
type Config struct {
	Hub   *Hub
	Store *store.Store
}

// Server represents the HTTP server for the fingerlink application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server

	// closing is closed when Shutdown starts so streaming handlers return
	// instead of holding their connections open.
	closing   chan struct{}
	closeOnce sync.Once
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config:  config,
		mux:     http.NewServeMux(),
		start:   time.Now(),
		closing: make(chan struct{}),
	}
	s.http = &http.Server{Handler: s}
	s.http.RegisterOnShutdown(s.signalClosing)
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Hub != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Hub, s.closing))
		s.mux.Handle("/api/states", NewStatesHandler(s.config.Hub, s.closing))
	}

	if s.config.Store != nil {
		s.mux.HandleFunc("/api/sessions", s.handleSessions)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		resp["clients"] = s.config.Hub.Subscribers()
	}
	writeJSON(w, resp)
}

// handleState returns the latest snapshot, or 204 before the first frame.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	u, ok := s.config.Hub.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, u.Snapshot)
}

// handleSessions lists recent sessions. ?limit=N caps the result (default 20).
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	sessions, err := s.config.Store.Sessions().List(limit)
	if err != nil {
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}

	writeJSON(w, sessions)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
// It returns http.ErrServerClosed after Shutdown or Close.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown or Close.
func (s *Server) Serve(l net.Listener) error {
	return s.http.Serve(l)
}

// Shutdown stops accepting connections, ends open streams and waits for
// in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.signalClosing()
	return s.http.Shutdown(ctx)
}

// Close drops all connections immediately.
func (s *Server) Close() error {
	s.signalClosing()
	return s.http.Close()
}

func (s *Server) signalClosing() {
	s.closeOnce.Do(func() { close(s.closing) })
}
