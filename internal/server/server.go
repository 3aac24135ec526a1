// Package server exposes the consultant and retrieval services over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ragkit-dev/ragkit/internal/consultant"
	"github.com/ragkit-dev/ragkit/internal/rag"
	"github.com/ragkit-dev/ragkit/pkg/observability"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Addr is the listen address (host:port).
	Addr string
	// ReadTimeout and WriteTimeout bound request handling. The write
	// timeout must leave room for a full reasoning loop run.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Pinger reports backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes chat, ingestion, and operational endpoints.
type Server struct {
	http       *http.Server
	consultant *consultant.Service
	rag        *rag.Service
	pinger     Pinger
}

// New builds the server and its routes. pinger may be nil when no backing
// store participates in health checks.
func New(cfg Config, consultantSvc *consultant.Service, ragSvc *rag.Service, pinger Pinger) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	s := &Server{
		consultant: consultantSvc,
		rag:        ragSvc,
		pinger:     pinger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", s.handleChatStream)
	mux.HandleFunc("POST /api/v2/chat", s.handleChat)
	mux.HandleFunc("GET /api/v2/chat/{memoryId}", s.handleHistory)
	mux.HandleFunc("DELETE /api/v2/chat/{memoryId}", s.handleEvict)
	mux.HandleFunc("POST /api/rag/upload", s.handleUpload)
	mux.HandleFunc("POST /api/rag/search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", observability.MetricsHandler())

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	log.Printf("http server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
